package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/booking"
	"ms-booking/internal/domain"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

const (
	validationTitle = "One or more validation errors occurred."
	internalTitle   = "Internal Server Error"
)

type Handler struct {
	BookingService *booking.BookingService
	Logger         *logger.Logger
}

func NewHandler(bookingService *booking.BookingService, log *logger.Logger) *Handler {
	return &Handler{BookingService: bookingService, Logger: log}
}

// BookTickets → POST /book-ticket
func (h *Handler) BookTickets(w http.ResponseWriter, r *http.Request) {
	var req models.BookTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, validationTitle, "Invalid request body.")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, validationTitle, err.Error())
		return
	}

	resp, err := h.BookingService.BookTickets(r.Context(), req)
	if err != nil {
		h.writeError(w, "BookTickets", err)
		return
	}
	h.writeJSON(w, "BookTickets", resp)
}

// GetBookedTicket → GET /get-booked-ticket/{transactionId}
func (h *Handler) GetBookedTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	groups, err := h.BookingService.GetBookedTicket(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetBookedTicket", err)
		return
	}
	h.writeJSON(w, "GetBookedTicket", groups)
}

// RevokeTicket → DELETE /revoke-ticket/{transactionId}/{ticketCode}/{quantity}
func (h *Handler) RevokeTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	qty, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, validationTitle, "Quantity must be a whole number.")
		return
	}

	resp, err := h.BookingService.RevokeTicket(r.Context(), id, chi.URLParam(r, "ticketCode"), qty)
	if err != nil {
		h.writeError(w, "RevokeTicket", err)
		return
	}
	h.writeJSON(w, "RevokeTicket", resp)
}

// EditBookedTicket → PUT /edit-booked-ticket/{transactionId}
func (h *Handler) EditBookedTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	var items []models.EditBookedTicketItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, validationTitle, "Invalid request body.")
		return
	}
	for _, item := range items {
		if err := utils.ValidateStruct(item); err != nil {
			utils.WriteProblem(w, http.StatusBadRequest, validationTitle, err.Error())
			return
		}
	}

	resp, err := h.BookingService.EditBookedTicket(r.Context(), id, items)
	if err != nil {
		h.writeError(w, "EditBookedTicket", err)
		return
	}
	h.writeJSON(w, "EditBookedTicket", resp)
}

func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionId"), 10, 64)
	if err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, validationTitle, "BookedTicketTransactionId must be a whole number.")
		return 0, false
	}
	return id, true
}

// writeError sends not-found and invalid input as 400, the rest as 500.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	if domain.IsInvalidArgument(err) || domain.IsNotFound(err) {
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteProblem(w, http.StatusBadRequest, validationTitle, err.Error())
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	utils.WriteProblem(w, http.StatusInternalServerError, internalTitle, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, op string, v interface{}) {
	if err := utils.WriteJSON(w, http.StatusOK, v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("%s: failed to encode response: %v", op, err))
	}
}
