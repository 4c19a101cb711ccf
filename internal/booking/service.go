package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/domain"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

// Repository is the store surface the booking engine works against. Inside
// DBLayer.InTx every call shares one database transaction.
type Repository interface {
	GetTicket(ctx context.Context, code string) (*models.Ticket, error)
	DecrementQuota(ctx context.Context, code string, qty int) (bool, error)
	AdjustQuota(ctx context.Context, code string, delta int) (bool, error)
	CreateTransaction(ctx context.Context, trx *models.BookedTicketTransaction, lines []models.BookedTicket) error
	GetBookedLines(ctx context.Context, transactionID int64) ([]models.BookedTicket, error)
	UpdateLineQuantity(ctx context.Context, lineID int64, qty int) error
	DeleteLine(ctx context.Context, lineID int64) error
	RecomputeTotals(ctx context.Context, transactionID int64) (int, error)
}

type DBLayer interface {
	Repository
	InTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type TicketLock interface {
	Acquire(ctx context.Context, codes []string, owner string) error
	UnlockTickets(ctx context.Context, codes []string, owner string) error
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
}

type Options struct {
	// Atomic runs a whole booking in one transaction. When false every line
	// commits its quota decrement on its own.
	Atomic bool
	// RestockOnRevoke returns revoked quantity to the ticket quota.
	RestockOnRevoke bool
}

type BookingService struct {
	DB      DBLayer
	Lock    TicketLock
	Events  EventPublisher
	Logger  *logger.Logger
	Options Options
	now     func() time.Time
}

// NewBookingService wires the engine. lock and events may be nil.
func NewBookingService(db DBLayer, lock TicketLock, events EventPublisher, log *logger.Logger, opts Options) *BookingService {
	return &BookingService{
		DB:      db,
		Lock:    lock,
		Events:  events,
		Logger:  log,
		Options: opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ---------------- BOOK ----------------

func (s *BookingService) BookTickets(ctx context.Context, req models.BookTicketRequest) (*models.BookTicketResponse, error) {
	if len(req.Tickets) == 0 {
		return nil, domain.InvalidArgument("Tickets field cannot be empty.")
	}

	codes := make([]string, 0, len(req.Tickets))
	for _, l := range req.Tickets {
		codes = append(codes, l.TicketCode)
	}
	unlock, err := s.lock(ctx, codes)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var resp *models.BookTicketResponse
	if s.Options.Atomic {
		err = s.DB.InTx(ctx, func(ctx context.Context, repo Repository) error {
			var err error
			resp, err = s.book(ctx, repo, req.Tickets, func(fn func(Repository) error) error { return fn(repo) })
			return err
		})
	} else {
		resp, err = s.book(ctx, s.DB, req.Tickets, func(fn func(Repository) error) error {
			return s.DB.InTx(ctx, func(_ context.Context, repo Repository) error { return fn(repo) })
		})
	}
	if err != nil {
		return nil, err
	}

	s.Logger.LogBooking("BOOK", resp.BookedTicketTransactionID, fmt.Sprintf("%d tickets, total %.2f", resp.TotalTickets, resp.GrandTotal))
	s.publish(ctx, models.BookingCreated, resp.BookedTicketTransactionID, eventLines(req.Tickets))
	return resp, nil
}

// book validates and decrements each line in order through repo, then stores
// the transaction through persist.
func (s *BookingService) book(ctx context.Context, repo Repository, lines []models.BookTicketLine, persist func(func(Repository) error) error) (*models.BookTicketResponse, error) {
	resp := &models.BookTicketResponse{
		Tickets:        make([]models.BookedTicketDetail, 0, len(lines)),
		CategoryTotals: []models.CategorySummary{},
	}
	booked := make([]models.BookedTicket, 0, len(lines))
	categoryIndex := map[string]int{}
	now := s.now()

	for _, line := range lines {
		ticket, date, err := s.reserve(ctx, repo, line)
		if err != nil {
			return nil, err
		}

		subtotal := float64(line.Quantity) * ticket.Price
		booked = append(booked, models.BookedTicket{
			TicketCode: ticket.TicketCode,
			Quantity:   line.Quantity,
			Price:      ticket.Price,
			BookedDate: date,
			CreatedAt:  now,
		})
		resp.Tickets = append(resp.Tickets, models.BookedTicketDetail{
			TicketCode:   ticket.TicketCode,
			TicketName:   ticket.TicketName,
			CategoryName: ticket.CategoryName(),
			Price:        ticket.Price,
			Quantity:     line.Quantity,
			BookingDate:  date,
		})

		name := ticket.CategoryName()
		idx, ok := categoryIndex[name]
		if !ok {
			idx = len(resp.CategoryTotals)
			categoryIndex[name] = idx
			resp.CategoryTotals = append(resp.CategoryTotals, models.CategorySummary{CategoryName: name})
		}
		resp.CategoryTotals[idx].TotalPrice += subtotal
		resp.GrandTotal += subtotal
		resp.TotalTickets += line.Quantity
	}

	trx := &models.BookedTicketTransaction{
		TotalTickets: resp.TotalTickets,
		SummaryPrice: resp.GrandTotal,
		CreatedAt:    now,
	}
	err := persist(func(r Repository) error {
		return r.CreateTransaction(ctx, trx, booked)
	})
	if err != nil {
		return nil, err
	}
	resp.BookedTicketTransactionID = trx.BookedTicketTransactionID
	return resp, nil
}

func (s *BookingService) reserve(ctx context.Context, repo Repository, line models.BookTicketLine) (*models.Ticket, time.Time, error) {
	ticket, err := repo.GetTicket(ctx, line.TicketCode)
	if err != nil {
		return nil, time.Time{}, err
	}
	if ticket == nil {
		return nil, time.Time{}, domain.InvalidArgument("Ticket with code '%s' does not exist.", line.TicketCode)
	}
	if ticket.Quota <= 0 {
		return nil, time.Time{}, domain.InvalidArgument("Ticket '%s' is sold out.", ticket.TicketName)
	}
	if line.Quantity > ticket.Quota {
		return nil, time.Time{}, quotaExceeded(ticket)
	}

	date, ok := utils.ParseBookingDate(line.BookingDate)
	if !ok {
		return nil, time.Time{}, domain.InvalidArgument("Invalid date format for ticket '%s'. Use 'YYYY-MM-DD HH:mm:ss.fff'.", ticket.TicketName)
	}
	if date.Before(ticket.EventDateMinimal) || date.After(ticket.EventDateMaximal) {
		return nil, time.Time{}, domain.InvalidArgument("Event date for ticket '%s' is not within the valid range.", ticket.TicketName)
	}

	ok, err = repo.DecrementQuota(ctx, ticket.TicketCode, line.Quantity)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !ok {
		return nil, time.Time{}, quotaExceeded(ticket)
	}
	return ticket, date, nil
}

func quotaExceeded(ticket *models.Ticket) error {
	return domain.InvalidArgument("Requested quantity for ticket '%s' exceeds available quota.", ticket.TicketName)
}

// ---------------- GET ----------------

// GetBookedTicket groups the live lines of a transaction by category in the
// order the categories first appear.
func (s *BookingService) GetBookedTicket(ctx context.Context, transactionID int64) ([]models.BookedTicketGroup, error) {
	lines, err := s.DB.GetBookedLines(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, transactionNotFound()
	}

	groups := []models.BookedTicketGroup{}
	index := map[string]int{}
	for i := range lines {
		l := &lines[i]
		name := l.CategoryName()
		idx, ok := index[name]
		if !ok {
			idx = len(groups)
			index[name] = idx
			groups = append(groups, models.BookedTicketGroup{CategoryName: name, Tickets: []models.BookedTicketInfo{}})
		}
		groups[idx].QtyPerCategory += l.Quantity
		groups[idx].Tickets = append(groups[idx].Tickets, models.BookedTicketInfo{
			TicketCode:  l.TicketCode,
			TicketName:  l.TicketName(),
			BookingDate: l.BookedDate.UTC(),
			Quantity:    l.Quantity,
		})
	}
	return groups, nil
}

// GetBookedLines exposes the raw lines of a transaction for receipts.
func (s *BookingService) GetBookedLines(ctx context.Context, transactionID int64) ([]models.BookedTicket, error) {
	lines, err := s.DB.GetBookedLines(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, transactionNotFound()
	}
	return lines, nil
}

func transactionNotFound() error {
	return domain.NotFound("BookedTicketTransactionId not found.")
}

func lineNotFound(code string) error {
	return domain.NotFound("Ticket with code '%s' not found in the booked tickets.", code)
}

func findLine(lines []models.BookedTicket, code string) *models.BookedTicket {
	for i := range lines {
		if lines[i].TicketCode == code {
			return &lines[i]
		}
	}
	return nil
}

// ---------------- REVOKE ----------------

func (s *BookingService) RevokeTicket(ctx context.Context, transactionID int64, code string, qty int) (*models.RemainingTicket, error) {
	unlock, err := s.lock(ctx, []string{code})
	if err != nil {
		return nil, err
	}
	defer unlock()

	var resp *models.RemainingTicket
	err = s.DB.InTx(ctx, func(ctx context.Context, repo Repository) error {
		lines, err := repo.GetBookedLines(ctx, transactionID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return transactionNotFound()
		}
		line := findLine(lines, code)
		if line == nil {
			return lineNotFound(code)
		}
		if qty <= 0 {
			return domain.InvalidArgument("Quantity must be greater than zero.")
		}
		if qty > line.Quantity {
			return domain.InvalidArgument("Requested quantity (%d) exceeds the booked quantity (%d).", qty, line.Quantity)
		}

		remaining := line.Quantity - qty
		if remaining == 0 {
			err = repo.DeleteLine(ctx, line.BookedTicketID)
		} else {
			err = repo.UpdateLineQuantity(ctx, line.BookedTicketID, remaining)
		}
		if err != nil {
			return err
		}

		if s.Options.RestockOnRevoke {
			if _, err := repo.AdjustQuota(ctx, code, qty); err != nil {
				return err
			}
		}

		if _, err := repo.RecomputeTotals(ctx, transactionID); err != nil {
			return err
		}

		resp = &models.RemainingTicket{
			TicketCode:        line.TicketCode,
			TicketName:        line.TicketName(),
			CategoryName:      line.CategoryName(),
			RemainingQuantity: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogBooking("REVOKE", transactionID, fmt.Sprintf("%s -%d, %d left", code, qty, resp.RemainingQuantity))
	s.publish(ctx, models.BookingRevoked, transactionID, []models.BookingEventLine{{TicketCode: code, Quantity: qty}})
	return resp, nil
}

// ---------------- EDIT ----------------

func (s *BookingService) EditBookedTicket(ctx context.Context, transactionID int64, items []models.EditBookedTicketItem) ([]models.RemainingTicket, error) {
	if len(items) == 0 {
		return nil, domain.InvalidArgument("At least one ticket must be provided.")
	}

	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.TicketCode)
	}
	unlock, err := s.lock(ctx, codes)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var resp []models.RemainingTicket
	err = s.DB.InTx(ctx, func(ctx context.Context, repo Repository) error {
		lines, err := repo.GetBookedLines(ctx, transactionID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return transactionNotFound()
		}

		resp = make([]models.RemainingTicket, 0, len(items))
		for _, item := range items {
			line := findLine(lines, item.TicketCode)
			if line == nil {
				return lineNotFound(item.TicketCode)
			}
			if item.Quantity <= 0 {
				return domain.InvalidArgument("Quantity for ticket '%s' must be greater than zero.", item.TicketCode)
			}

			ticket, err := repo.GetTicket(ctx, item.TicketCode)
			if err != nil {
				return err
			}
			if ticket == nil {
				return domain.NotFound("Ticket with code '%s' not found in the tickets table.", item.TicketCode)
			}
			if item.Quantity > ticket.Quota+line.Quantity {
				return editQuotaExceeded(item)
			}

			ok, err := repo.AdjustQuota(ctx, item.TicketCode, line.Quantity-item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return editQuotaExceeded(item)
			}
			if err := repo.UpdateLineQuantity(ctx, line.BookedTicketID, item.Quantity); err != nil {
				return err
			}
			line.Quantity = item.Quantity

			resp = append(resp, models.RemainingTicket{
				TicketCode:        line.TicketCode,
				TicketName:        line.TicketName(),
				CategoryName:      line.CategoryName(),
				RemainingQuantity: line.Quantity,
			})
		}

		_, err = repo.RecomputeTotals(ctx, transactionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogBooking("EDIT", transactionID, fmt.Sprintf("%d lines updated", len(resp)))
	lines := make([]models.BookingEventLine, 0, len(resp))
	for _, r := range resp {
		lines = append(lines, models.BookingEventLine{TicketCode: r.TicketCode, Quantity: r.RemainingQuantity})
	}
	s.publish(ctx, models.BookingEdited, transactionID, lines)
	return resp, nil
}

func editQuotaExceeded(item models.EditBookedTicketItem) error {
	return domain.InvalidArgument("Requested quantity (%d) for ticket '%s' exceeds available quota.", item.Quantity, item.TicketCode)
}

// ---------------- HELPERS ----------------

// lock takes the distinct codes in sorted order so concurrent requests never
// wait on each other in a cycle.
func (s *BookingService) lock(ctx context.Context, codes []string) (func(), error) {
	if s.Lock == nil {
		return func() {}, nil
	}

	seen := map[string]bool{}
	distinct := make([]string, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			distinct = append(distinct, c)
		}
	}
	sort.Strings(distinct)

	owner := uuid.NewString()
	if err := s.Lock.Acquire(ctx, distinct, owner); err != nil {
		return nil, fmt.Errorf("lock tickets: %w", err)
	}
	return func() {
		// the request context may already be cancelled
		if err := s.Lock.UnlockTickets(context.Background(), distinct, owner); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Failed to release ticket locks %v: %v", distinct, err))
		}
	}, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, transactionID int64, lines []models.BookingEventLine) {
	if s.Events == nil {
		return
	}
	event := models.NewBookingEvent(eventType, transactionID, lines)
	if err := s.Events.PublishBookingEvent(ctx, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (%s #%d): %v", eventType, transactionID, err))
	}
}

func eventLines(lines []models.BookTicketLine) []models.BookingEventLine {
	out := make([]models.BookingEventLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.BookingEventLine{TicketCode: l.TicketCode, Quantity: l.Quantity})
	}
	return out
}
