package booking_api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/database/dbtest"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

func routes(h *booking_api.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/book-ticket", h.BookTickets)
	r.Get("/api/v1/get-booked-ticket/{transactionId}", h.GetBookedTicket)
	r.Delete("/api/v1/revoke-ticket/{transactionId}/{ticketCode}/{quantity}", h.RevokeTicket)
	r.Put("/api/v1/edit-booked-ticket/{transactionId}", h.EditBookedTicket)
	return r
}

func newRouter(t *testing.T) http.Handler {
	bunDB := dbtest.New(t)
	vip := dbtest.AddCategory(t, bunDB, "VIP")
	dbtest.AddTicket(t, bunDB, vip, "T1", "Gala", 100, 5)

	svc := booking.NewBookingService(bookingdb.New(bunDB), nil, nil, logger.Discard(), booking.Options{Atomic: true})
	return routes(booking_api.NewHandler(svc, logger.Discard()))
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func problem(t *testing.T, rec *httptest.ResponseRecorder) utils.ProblemDetails {
	assert.Equal(t, utils.ProblemContentType, rec.Header().Get("Content-Type"))
	var p utils.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func bookT1(t *testing.T, h http.Handler, qty string) int64 {
	rec := do(t, h, http.MethodPost, "/api/v1/book-ticket",
		`{"tickets":[{"ticketCode":"T1","quantity":`+qty+`,"bookingDate":"2026-06-01 19:00:00.000"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.BookTicketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.BookedTicketTransactionID
}

func TestBookTicketsOK(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/book-ticket",
		`{"tickets":[{"ticketCode":"T1","quantity":3,"bookingDate":"2026-06-01 19:00:00.000"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.BookTicketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.BookedTicketTransactionID)
	assert.Equal(t, 3, resp.TotalTickets)
	assert.InDelta(t, 300, resp.GrandTotal, 0.001)
	assert.Equal(t, []models.CategorySummary{{CategoryName: "VIP", TotalPrice: 300}}, resp.CategoryTotals)
}

func TestBookTicketsBadRequests(t *testing.T) {
	h := newRouter(t)

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"malformed json", `{"tickets":`, "Invalid request body."},
		{"empty list", `{"tickets":[]}`, "Tickets field cannot be empty."},
		{"missing code", `{"tickets":[{"quantity":1,"bookingDate":"2026-06-01 19:00:00.000"}]}`, "TicketCode is required."},
		{"zero quantity", `{"tickets":[{"ticketCode":"T1","quantity":0,"bookingDate":"2026-06-01 19:00:00.000"}]}`, "Quantity must be greater than zero."},
		{"sold past quota", `{"tickets":[{"ticketCode":"T1","quantity":9,"bookingDate":"2026-06-01 19:00:00.000"}]}`, "Requested quantity for ticket 'Gala' exceeds available quota."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/book-ticket", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			p := problem(t, rec)
			assert.Equal(t, "One or more validation errors occurred.", p.Title)
			assert.Equal(t, tt.detail, p.Detail)
		})
	}
}

func TestGetBookedTicket(t *testing.T) {
	h := newRouter(t)
	id := bookT1(t, h, "2")

	rec := do(t, h, http.MethodGet, "/api/v1/get-booked-ticket/"+itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var groups []models.BookedTicketGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "VIP", groups[0].CategoryName)
	assert.Equal(t, 2, groups[0].QtyPerCategory)

	rec = do(t, h, http.MethodGet, "/api/v1/get-booked-ticket/999", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BookedTicketTransactionId not found.", problem(t, rec).Detail)

	rec = do(t, h, http.MethodGet, "/api/v1/get-booked-ticket/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeTicket(t *testing.T) {
	h := newRouter(t)
	id := bookT1(t, h, "3")

	rec := do(t, h, http.MethodDelete, "/api/v1/revoke-ticket/"+itoa(id)+"/T1/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var remaining models.RemainingTicket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &remaining))
	assert.Equal(t, 2, remaining.RemainingQuantity)
	assert.Equal(t, "Gala", remaining.TicketName)

	rec = do(t, h, http.MethodDelete, "/api/v1/revoke-ticket/"+itoa(id)+"/T1/5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Requested quantity (5) exceeds the booked quantity (2).", problem(t, rec).Detail)

	rec = do(t, h, http.MethodDelete, "/api/v1/revoke-ticket/"+itoa(id)+"/T1/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeWholeLineThenGetIsBadRequest(t *testing.T) {
	h := newRouter(t)
	id := bookT1(t, h, "2")

	rec := do(t, h, http.MethodDelete, "/api/v1/revoke-ticket/"+itoa(id)+"/T1/2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var remaining models.RemainingTicket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &remaining))
	assert.Equal(t, 0, remaining.RemainingQuantity)
	assert.Equal(t, "T1", remaining.TicketCode)

	rec = do(t, h, http.MethodGet, "/api/v1/get-booked-ticket/"+itoa(id), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BookedTicketTransactionId not found.", problem(t, rec).Detail)
}

func TestEditBookedTicket(t *testing.T) {
	h := newRouter(t)
	id := bookT1(t, h, "3")

	rec := do(t, h, http.MethodPut, "/api/v1/edit-booked-ticket/"+itoa(id), `[{"ticketCode":"T1","quantity":1}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []models.RemainingTicket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].RemainingQuantity)

	rec = do(t, h, http.MethodPut, "/api/v1/edit-booked-ticket/"+itoa(id), `[{"ticketCode":"T1","quantity":9}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Requested quantity (9) for ticket 'T1' exceeds available quota.", problem(t, rec).Detail)

	rec = do(t, h, http.MethodPut, "/api/v1/edit-booked-ticket/"+itoa(id), `[{"ticketCode":" ","quantity":1}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TicketCode is required.", problem(t, rec).Detail)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	sqldb, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	sqlMock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	svc := booking.NewBookingService(bookingdb.New(bunDB), nil, nil, logger.Discard(), booking.Options{Atomic: true})
	h := routes(booking_api.NewHandler(svc, logger.Discard()))

	rec := do(t, h, http.MethodGet, "/api/v1/get-booked-ticket/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p := problem(t, rec)
	assert.Equal(t, "Internal Server Error", p.Title)
	assert.Contains(t, p.Detail, "connection reset")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
