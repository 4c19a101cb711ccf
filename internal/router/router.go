package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/logger"
	"ms-booking/internal/report/report_api"
	"ms-booking/internal/tickets/ticket_api"
	"ms-booking/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Tickets  *ticket_api.Handler
	Bookings *booking_api.Handler
	Reports  *report_api.Handler
	// Verifier guards the mutating booking routes. Nil leaves them open.
	Verifier       auth.Verifier
	DB             Pinger
	AllowedOrigins []string
	Logger         *logger.Logger
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(EchoRequestID)
	r.Use(AccessLog(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/health", Health(d.DB))
		r.Get("/get-available-ticket", d.Tickets.GetAvailableTickets)
		r.Get("/get-booked-ticket/{transactionId}", d.Bookings.GetBookedTicket)
		r.Get("/reports/download-ticket-report", d.Reports.DownloadTicketReport)
		r.Get("/reports/booked-ticket/{transactionId}", d.Reports.BookingReceipt)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			if d.Verifier != nil {
				r.Use(auth.Middleware(d.Verifier, d.Logger))
				d.Logger.Info("AUTH", "Bearer auth applied to booking mutation routes")
			}
			r.Post("/book-ticket", d.Bookings.BookTickets)
			r.Delete("/revoke-ticket/{transactionId}/{ticketCode}/{quantity}", d.Bookings.RevokeTicket)
			r.Put("/edit-booked-ticket/{transactionId}", d.Bookings.EditBookedTicket)
		})
	})

	d.Logger.Info("ROUTER", "Routes registered under /api/v1")
	return r
}

// EchoRequestID copies the id set by middleware.RequestID into the response.
func EchoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(middleware.GetReqID(r.Context()), r.Method, r.URL.Path, status, time.Since(start))
		})
	}
}

// Health → GET /health, 503 while the database does not answer
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			utils.WriteProblem(w, http.StatusServiceUnavailable, "Service unavailable.", fmt.Sprintf("database: %v", err))
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
