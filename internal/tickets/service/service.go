package tickets

import (
	"context"
	"fmt"
	"math"
	"strings"

	"ms-booking/internal/domain"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

// OrderKeys lists the accepted catalog order keys in the order they are
// reported back to callers.
var OrderKeys = []string{"categoryname", "ticketcode", "ticketname", "price", "eventdateminimal", "eventdatemaximal"}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type DBLayer interface {
	CountTickets(ctx context.Context) (int, error)
	FindAvailable(ctx context.Context, q models.TicketQuery, limit, offset int) ([]models.Ticket, int, error)
	ListBookedTickets(ctx context.Context) ([]models.BookedTicket, error)
}

type TicketService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewTicketService(db DBLayer, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, Logger: log}
}

// GetAvailableTickets returns one page of tickets that still have quota and
// the number of matches before paging.
func (s *TicketService) GetAvailableTickets(ctx context.Context, q models.TicketQuery) ([]models.TicketOutput, int, error) {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		return nil, 0, domain.InvalidArgument("Page number must be greater than or equal to 1.")
	}
	if q.PageSize < 1 {
		return nil, 0, domain.InvalidArgument("Page size must be greater than or equal to 1.")
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return nil, 0, domain.InvalidArgument("Page number and page size are too large.")
	}

	count, err := s.DB.CountTickets(ctx)
	if err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return nil, 0, domain.InvalidArgument("No tickets available in the database.")
	}

	if err := normalizeOrder(&q); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PageSize
	tickets, total, err := s.DB.FindAvailable(ctx, q, q.PageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(tickets) == 0 {
		return nil, total, domain.NotFound("No tickets match the specified criteria.")
	}

	s.Logger.Debug("CATALOG", fmt.Sprintf("page %d/%d returned %d of %d tickets", q.Page, q.PageSize, len(tickets), total))
	return toOutputs(tickets), total, nil
}

// ListAllAvailable returns every ticket with quota left in ticket code order.
// Unlike GetAvailableTickets an empty result is not an error.
func (s *TicketService) ListAllAvailable(ctx context.Context) ([]models.TicketOutput, error) {
	q := models.TicketQuery{OrderBy: "ticketcode", OrderState: "asc"}
	tickets, _, err := s.DB.FindAvailable(ctx, q, 0, 0)
	if err != nil {
		return nil, err
	}
	return toOutputs(tickets), nil
}

// GetBookedTickets flattens every live booked line.
func (s *TicketService) GetBookedTickets(ctx context.Context) ([]models.BookedTicketRow, error) {
	lines, err := s.DB.ListBookedTickets(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.BookedTicketRow, 0, len(lines))
	for i := range lines {
		rows = append(rows, models.BookedTicketRow{
			TicketCode:   lines[i].TicketCode,
			TicketName:   lines[i].TicketName(),
			CategoryName: lines[i].CategoryName(),
			Quantity:     lines[i].Quantity,
			BookingDate:  lines[i].BookedDate.UTC(),
		})
	}
	return rows, nil
}

// TotalPages rounds up.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func normalizeOrder(q *models.TicketQuery) error {
	state := strings.ToLower(q.OrderState)
	if state != "asc" && state != "desc" {
		state = "asc"
	}
	q.OrderState = state

	if q.OrderBy == "" {
		q.OrderBy = "ticketcode"
		return nil
	}
	key := strings.ToLower(q.OrderBy)
	for _, k := range OrderKeys {
		if k == key {
			q.OrderBy = key
			return nil
		}
	}
	return domain.InvalidArgument("Invalid orderBy value '%s'. Available options: %s", q.OrderBy, strings.Join(OrderKeys, ", "))
}

func toOutputs(tickets []models.Ticket) []models.TicketOutput {
	out := make([]models.TicketOutput, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		out = append(out, models.TicketOutput{
			TicketCode:       t.TicketCode,
			TicketName:       t.TicketName,
			CategoryName:     t.CategoryName(),
			Price:            t.Price,
			Quota:            t.Quota,
			EventDateMinimal: utils.FormatDateTime(t.EventDateMinimal),
			EventDateMaximal: utils.FormatDateTime(t.EventDateMaximal),
		})
	}
	return out
}
