package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-booking/internal/booking"
	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/database/dbtest"
	"ms-booking/internal/domain"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

const validDate = "2026-06-01 19:00:00.000"

type MockLock struct {
	mock.Mock
}

func (m *MockLock) Acquire(ctx context.Context, codes []string, owner string) error {
	return m.Called(ctx, codes, owner).Error(0)
}

func (m *MockLock) UnlockTickets(ctx context.Context, codes []string, owner string) error {
	return m.Called(ctx, codes, owner).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

// setupService seeds T1 (VIP, price 100, quota 5) and C001/C002 (Cinema).
func setupService(t *testing.T, opts booking.Options) (*booking.BookingService, *bun.DB) {
	bunDB := dbtest.New(t)

	vip := dbtest.AddCategory(t, bunDB, "VIP")
	cinema := dbtest.AddCategory(t, bunDB, "Cinema")
	dbtest.AddTicket(t, bunDB, vip, "T1", "Gala", 100, 5)
	dbtest.AddTicket(t, bunDB, cinema, "C001", "Avengers", 50, 10)
	dbtest.AddTicket(t, bunDB, cinema, "C002", "Batman", 40, 3)

	svc := booking.NewBookingService(bookingdb.New(bunDB), nil, nil, logger.Discard(), opts)
	return svc, bunDB
}

func line(code string, qty int) models.BookTicketLine {
	return models.BookTicketLine{TicketCode: code, Quantity: qty, BookingDate: validDate}
}

func book(t *testing.T, svc *booking.BookingService, lines ...models.BookTicketLine) *models.BookTicketResponse {
	t.Helper()
	resp, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: lines})
	require.NoError(t, err)
	return resp
}

func assertInvalid(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, domain.IsInvalidArgument(err), "expected invalid argument, got %v", err)
	assert.Equal(t, msg, err.Error())
}

func assertNotFound(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err), "expected not found, got %v", err)
	assert.Equal(t, msg, err.Error())
}

// ---------------- BOOK ----------------

func TestBookTicketsSummarizesByCategory(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})

	resp := book(t, svc, line("C001", 2), line("T1", 1), line("C002", 1))

	assert.NotZero(t, resp.BookedTicketTransactionID)
	assert.Equal(t, 4, resp.TotalTickets)
	assert.InDelta(t, 240, resp.GrandTotal, 0.001)
	require.Len(t, resp.Tickets, 3)
	assert.Equal(t, "Avengers", resp.Tickets[0].TicketName)
	assert.Equal(t, "Cinema", resp.Tickets[0].CategoryName)
	assert.Equal(t, []models.CategorySummary{
		{CategoryName: "Cinema", TotalPrice: 140},
		{CategoryName: "VIP", TotalPrice: 100},
	}, resp.CategoryTotals)

	assert.Equal(t, 8, dbtest.Quota(t, bunDB, "C001"))
	assert.Equal(t, 4, dbtest.Quota(t, bunDB, "T1"))
	assert.Equal(t, 2, dbtest.Quota(t, bunDB, "C002"))
}

func TestBookTicketsRejectsEmptyRequest(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})

	_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{})
	assertInvalid(t, err, "Tickets field cannot be empty.")
}

func TestBookTicketsLineErrors(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})

	tests := []struct {
		name string
		line models.BookTicketLine
		msg  string
	}{
		{"unknown code", line("X999", 1), "Ticket with code 'X999' does not exist."},
		{"over quota", line("T1", 6), "Requested quantity for ticket 'Gala' exceeds available quota."},
		{"bad date", models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2026-06-01"}, "Invalid date format for ticket 'Gala'. Use 'YYYY-MM-DD HH:mm:ss.fff'."},
		{"date before window", models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2025-12-31 23:59:59.999"}, "Event date for ticket 'Gala' is not within the valid range."},
		{"date after window", models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2027-01-01 00:00:00.000"}, "Event date for ticket 'Gala' is not within the valid range."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: []models.BookTicketLine{tt.line}})
			assertInvalid(t, err, tt.msg)
		})
	}
}

func TestBookTicketsWindowIsInclusive(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})

	book(t, svc,
		models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2026-01-01 00:00:00.000"},
		models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2026-12-31 23:59:59.000"},
	)
}

func TestBookingExactQuotaThenSoldOut(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})

	book(t, svc, line("T1", 5))
	assert.Equal(t, 0, dbtest.Quota(t, bunDB, "T1"))

	_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: []models.BookTicketLine{line("T1", 1)}})
	assertInvalid(t, err, "Ticket 'Gala' is sold out.")
}

func TestBookTicketsSeesEarlierLinesOfSameRequest(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})

	_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: []models.BookTicketLine{line("T1", 3), line("T1", 3)}})
	assertInvalid(t, err, "Requested quantity for ticket 'Gala' exceeds available quota.")
	assert.Equal(t, 5, dbtest.Quota(t, bunDB, "T1"))
}

func TestAtomicBookingRollsBackEarlierLines(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})

	bad := models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2030-01-01 00:00:00.000"}
	_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: []models.BookTicketLine{line("C001", 4), bad}})
	require.Error(t, err)

	assert.Equal(t, 10, dbtest.Quota(t, bunDB, "C001"))
	assert.Equal(t, 5, dbtest.Quota(t, bunDB, "T1"))

	n, err := bunDB.NewSelect().Model((*models.BookedTicketTransaction)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLegacyBookingKeepsEarlierDecrements(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: false})

	bad := models.BookTicketLine{TicketCode: "T1", Quantity: 1, BookingDate: "2030-01-01 00:00:00.000"}
	_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: []models.BookTicketLine{line("C001", 4), bad}})
	require.Error(t, err)

	assert.Equal(t, 6, dbtest.Quota(t, bunDB, "C001"))
	assert.Equal(t, 5, dbtest.Quota(t, bunDB, "T1"))

	resp := book(t, svc, line("C001", 1))
	assert.Equal(t, 1, resp.TotalTickets)
	assert.Equal(t, 5, dbtest.Quota(t, bunDB, "C001"))
}

func TestBookTicketsLocksSortedDistinctCodes(t *testing.T) {
	bunDB := dbtest.New(t)
	cinema := dbtest.AddCategory(t, bunDB, "Cinema")
	dbtest.AddTicket(t, bunDB, cinema, "C001", "Avengers", 50, 10)
	dbtest.AddTicket(t, bunDB, cinema, "C002", "Batman", 40, 3)

	lock := new(MockLock)
	lock.On("Acquire", mock.Anything, []string{"C001", "C002"}, mock.AnythingOfType("string")).Return(nil)
	lock.On("UnlockTickets", mock.Anything, []string{"C001", "C002"}, mock.AnythingOfType("string")).Return(nil)

	svc := booking.NewBookingService(bookingdb.New(bunDB), lock, nil, logger.Discard(), booking.Options{Atomic: true})
	book(t, svc, line("C002", 1), line("C001", 1), line("C002", 1))

	lock.AssertExpectations(t)
}

func TestBookTicketsFailsWhenLockUnavailable(t *testing.T) {
	bunDB := dbtest.New(t)
	cinema := dbtest.AddCategory(t, bunDB, "Cinema")
	dbtest.AddTicket(t, bunDB, cinema, "C001", "Avengers", 50, 10)

	lock := new(MockLock)
	lock.On("Acquire", mock.Anything, []string{"C001"}, mock.Anything).Return(errors.New("timed out"))

	svc := booking.NewBookingService(bookingdb.New(bunDB), lock, nil, logger.Discard(), booking.Options{Atomic: true})
	_, err := svc.BookTickets(context.Background(), models.BookTicketRequest{Tickets: []models.BookTicketLine{line("C001", 1)}})

	require.Error(t, err)
	assert.False(t, domain.IsInvalidArgument(err))
	assert.Equal(t, 10, dbtest.Quota(t, bunDB, "C001"))
	lock.AssertNotCalled(t, "UnlockTickets", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookTicketsPublishFailureDoesNotFailRequest(t *testing.T) {
	bunDB := dbtest.New(t)
	cinema := dbtest.AddCategory(t, bunDB, "Cinema")
	dbtest.AddTicket(t, bunDB, cinema, "C001", "Avengers", 50, 10)

	events := new(MockPublisher)
	events.On("PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e models.BookingEvent) bool {
		return e.Type == models.BookingCreated && len(e.Lines) == 1 && e.Lines[0].Quantity == 2
	})).Return(errors.New("broker down"))

	svc := booking.NewBookingService(bookingdb.New(bunDB), nil, events, logger.Discard(), booking.Options{Atomic: true})
	resp := book(t, svc, line("C001", 2))

	assert.Equal(t, 2, resp.TotalTickets)
	events.AssertExpectations(t)
}

// ---------------- GET ----------------

func TestGetBookedTicketGroupsByCategory(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})
	resp := book(t, svc, line("C001", 2), line("T1", 1), line("C002", 3))

	groups, err := svc.GetBookedTicket(context.Background(), resp.BookedTicketTransactionID)
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "Cinema", groups[0].CategoryName)
	assert.Equal(t, 5, groups[0].QtyPerCategory)
	require.Len(t, groups[0].Tickets, 2)
	assert.Equal(t, "C001", groups[0].Tickets[0].TicketCode)
	assert.Equal(t, "Batman", groups[0].Tickets[1].TicketName)
	assert.Equal(t, "VIP", groups[1].CategoryName)
	assert.Equal(t, 1, groups[1].QtyPerCategory)
}

func TestGetBookedTicketNotFound(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})

	_, err := svc.GetBookedTicket(context.Background(), 42)
	assertNotFound(t, err, "BookedTicketTransactionId not found.")

	_, err = svc.GetBookedLines(context.Background(), 42)
	assertNotFound(t, err, "BookedTicketTransactionId not found.")
}

// ---------------- REVOKE ----------------

func TestSampleFlowBookRevokeEdit(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})
	ctx := context.Background()

	resp := book(t, svc, line("T1", 3))
	assert.InDelta(t, 300, resp.GrandTotal, 0.001)
	assert.Equal(t, 3, resp.TotalTickets)
	assert.Equal(t, 2, dbtest.Quota(t, bunDB, "T1"))
	id := resp.BookedTicketTransactionID

	remaining, err := svc.RevokeTicket(ctx, id, "T1", 1)
	require.NoError(t, err)
	assert.Equal(t, models.RemainingTicket{TicketCode: "T1", TicketName: "Gala", CategoryName: "VIP", RemainingQuantity: 2}, *remaining)
	assert.Equal(t, 2, dbtest.Quota(t, bunDB, "T1"))

	trx := new(models.BookedTicketTransaction)
	require.NoError(t, bunDB.NewSelect().Model(trx).Where("booked_ticket_transaction_id = ?", id).Scan(ctx))
	assert.Equal(t, 2, trx.TotalTickets)
	assert.InDelta(t, 200, trx.SummaryPrice, 0.001)

	_, err = svc.EditBookedTicket(ctx, id, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 5}})
	assertInvalid(t, err, "Requested quantity (5) for ticket 'T1' exceeds available quota.")
	assert.Equal(t, 2, dbtest.Quota(t, bunDB, "T1"))
}

func TestRevokeWholeLineDeletesTransaction(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})
	ctx := context.Background()
	id := book(t, svc, line("T1", 2)).BookedTicketTransactionID

	remaining, err := svc.RevokeTicket(ctx, id, "T1", 2)
	require.NoError(t, err)
	assert.Zero(t, remaining.RemainingQuantity)

	_, err = svc.GetBookedTicket(ctx, id)
	assertNotFound(t, err, "BookedTicketTransactionId not found.")
}

func TestRevokeErrors(t *testing.T) {
	svc, _ := setupService(t, booking.Options{Atomic: true})
	ctx := context.Background()
	id := book(t, svc, line("T1", 2)).BookedTicketTransactionID

	_, err := svc.RevokeTicket(ctx, id+1, "T1", 1)
	assertNotFound(t, err, "BookedTicketTransactionId not found.")

	_, err = svc.RevokeTicket(ctx, id, "C001", 1)
	assertNotFound(t, err, "Ticket with code 'C001' not found in the booked tickets.")

	_, err = svc.RevokeTicket(ctx, id, "T1", 0)
	assertInvalid(t, err, "Quantity must be greater than zero.")

	_, err = svc.RevokeTicket(ctx, id, "T1", 3)
	assertInvalid(t, err, "Requested quantity (3) exceeds the booked quantity (2).")
}

func TestRevokeRestockPolicy(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true, RestockOnRevoke: true})
	id := book(t, svc, line("T1", 3)).BookedTicketTransactionID

	_, err := svc.RevokeTicket(context.Background(), id, "T1", 2)
	require.NoError(t, err)
	assert.Equal(t, 4, dbtest.Quota(t, bunDB, "T1"))
}

// ---------------- EDIT ----------------

func TestEditDownThenUpRestoresQuota(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})
	ctx := context.Background()
	id := book(t, svc, line("T1", 3), line("C001", 2)).BookedTicketTransactionID

	out, err := svc.EditBookedTicket(ctx, id, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].RemainingQuantity)
	assert.Equal(t, 4, dbtest.Quota(t, bunDB, "T1"))

	out, err = svc.EditBookedTicket(ctx, id, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, out[0].RemainingQuantity)
	assert.Equal(t, 2, dbtest.Quota(t, bunDB, "T1"))

	trx := new(models.BookedTicketTransaction)
	require.NoError(t, bunDB.NewSelect().Model(trx).Where("booked_ticket_transaction_id = ?", id).Scan(ctx))
	assert.Equal(t, 5, trx.TotalTickets)
	assert.InDelta(t, 400, trx.SummaryPrice, 0.001)
}

func TestEditUsesWholeRemainingQuota(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})
	id := book(t, svc, line("T1", 2)).BookedTicketTransactionID

	_, err := svc.EditBookedTicket(context.Background(), id, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 5}})
	require.NoError(t, err)
	assert.Equal(t, 0, dbtest.Quota(t, bunDB, "T1"))
}

func TestEditErrorsRollBack(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})
	ctx := context.Background()
	id := book(t, svc, line("T1", 2), line("C001", 1)).BookedTicketTransactionID

	_, err := svc.EditBookedTicket(ctx, id, nil)
	assertInvalid(t, err, "At least one ticket must be provided.")

	_, err = svc.EditBookedTicket(ctx, id+1, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 1}})
	assertNotFound(t, err, "BookedTicketTransactionId not found.")

	_, err = svc.EditBookedTicket(ctx, id, []models.EditBookedTicketItem{{TicketCode: "C002", Quantity: 1}})
	assertNotFound(t, err, "Ticket with code 'C002' not found in the booked tickets.")

	// the first item is applied before the second fails, then rolled back
	_, err = svc.EditBookedTicket(ctx, id, []models.EditBookedTicketItem{
		{TicketCode: "T1", Quantity: 1},
		{TicketCode: "C001", Quantity: 0},
	})
	assertInvalid(t, err, "Quantity for ticket 'C001' must be greater than zero.")
	assert.Equal(t, 3, dbtest.Quota(t, bunDB, "T1"))

	groups, err := svc.GetBookedTicket(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, groups[0].Tickets[0].Quantity)
}

func TestQuotaNeverNegativeAcrossOperations(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true, RestockOnRevoke: true})
	ctx := context.Background()

	id := book(t, svc, line("C002", 3)).BookedTicketTransactionID
	_, err := svc.BookTickets(ctx, models.BookTicketRequest{Tickets: []models.BookTicketLine{line("C002", 1)}})
	assertInvalid(t, err, "Ticket 'Batman' is sold out.")

	_, err = svc.EditBookedTicket(ctx, id, []models.EditBookedTicketItem{{TicketCode: "C002", Quantity: 4}})
	require.Error(t, err)
	assert.Equal(t, 0, dbtest.Quota(t, bunDB, "C002"))

	_, err = svc.RevokeTicket(ctx, id, "C002", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, dbtest.Quota(t, bunDB, "C002"))
}

func TestEditThenRevokeLastLineDeletesTransaction(t *testing.T) {
	svc, bunDB := setupService(t, booking.Options{Atomic: true})
	ctx := context.Background()

	first := book(t, svc, line("T1", 2)).BookedTicketTransactionID
	second := book(t, svc, line("T1", 2)).BookedTicketTransactionID
	assert.Equal(t, 1, dbtest.Quota(t, bunDB, "T1"))

	_, err := svc.RevokeTicket(ctx, first, "T1", 2)
	require.NoError(t, err)

	_, err = svc.EditBookedTicket(ctx, second, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 3}})
	require.NoError(t, err)
	_, err = svc.EditBookedTicket(ctx, second, []models.EditBookedTicketItem{{TicketCode: "T1", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, dbtest.Quota(t, bunDB, "T1"))

	remaining, err := svc.RevokeTicket(ctx, second, "T1", 1)
	require.NoError(t, err)
	assert.Zero(t, remaining.RemainingQuantity)

	for _, id := range []int64{first, second} {
		_, err = svc.GetBookedTicket(ctx, id)
		assertNotFound(t, err, "BookedTicketTransactionId not found.")
	}
}
