package ticket_api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"ms-booking/internal/domain"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	tickets "ms-booking/internal/tickets/service"
	"ms-booking/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

// GetAvailableTickets → GET /get-available-ticket
func (h *Handler) GetAvailableTickets(w http.ResponseWriter, r *http.Request) {
	q, err := parseTicketQuery(r.URL.Query())
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GetAvailableTickets: bad query: %v", err))
		utils.WriteProblem(w, http.StatusBadRequest, "Invalid input data.", "One or more input values are invalid.")
		return
	}
	if q.Page < 1 {
		utils.WriteProblem(w, http.StatusBadRequest, "Invalid page number.", "Page number must be greater than or equal to 1.")
		return
	}
	if q.PageSize < 1 {
		utils.WriteProblem(w, http.StatusBadRequest, "Invalid page size.", "Page size must be greater than or equal to 1.")
		return
	}

	data, total, err := h.TicketService.GetAvailableTickets(r.Context(), q)
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			utils.WriteProblem(w, http.StatusNotFound, "No available tickets found.", err.Error())
		case domain.IsInvalidArgument(err):
			utils.WriteProblem(w, http.StatusBadRequest, "Invalid request.", err.Error())
		default:
			h.Logger.Error("API", fmt.Sprintf("GetAvailableTickets: %v", err))
			utils.WriteProblem(w, http.StatusInternalServerError, "Internal server error.", err.Error())
		}
		return
	}

	resp := models.AvailableTicketsResponse{
		Data: data,
		Pagination: models.Pagination{
			TotalCount:  total,
			TotalPages:  tickets.TotalPages(total, q.PageSize),
			CurrentPage: q.Page,
			PageSize:    q.PageSize,
		},
	}
	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAvailableTickets: failed to encode response: %v", err))
	}
}

func parseTicketQuery(v url.Values) (models.TicketQuery, error) {
	q := models.TicketQuery{
		CategoryName: v.Get("categoryName"),
		TicketCode:   v.Get("ticketCode"),
		TicketName:   v.Get("ticketName"),
		OrderBy:      v.Get("orderBy"),
		OrderState:   v.Get("orderState"),
		Page:         tickets.DefaultPage,
		PageSize:     tickets.DefaultPageSize,
	}

	if s := v.Get("maxPrice"); s != "" {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, fmt.Errorf("maxPrice: %w", err)
		}
		q.MaxPrice = &p
	}
	if s := v.Get("eventDateMin"); s != "" {
		d, err := utils.ParseQueryDate(s)
		if err != nil {
			return q, fmt.Errorf("eventDateMin: %w", err)
		}
		q.EventDateMin = &d
	}
	if s := v.Get("eventDateMax"); s != "" {
		d, err := utils.ParseQueryDate(s)
		if err != nil {
			return q, fmt.Errorf("eventDateMax: %w", err)
		}
		q.EventDateMax = &d
	}
	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("page: %w", err)
		}
		q.Page = n
	}
	if s := v.Get("pageSize"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("pageSize: %w", err)
		}
		q.PageSize = n
	}
	return q, nil
}
