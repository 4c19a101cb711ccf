package report_api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/domain"
	"ms-booking/internal/logger"
	"ms-booking/internal/report"
	"ms-booking/internal/utils"
)

type Handler struct {
	ReportService *report.ReportService
	Logger        *logger.Logger
}

func NewHandler(reportService *report.ReportService, log *logger.Logger) *Handler {
	return &Handler{ReportService: reportService, Logger: log}
}

// DownloadTicketReport → GET /reports/download-ticket-report
func (h *Handler) DownloadTicketReport(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.ReportService.TicketReport(r.Context())
	if err != nil {
		h.Logger.Error("REPORT", fmt.Sprintf("DownloadTicketReport: %v", err))
		utils.WriteProblem(w, http.StatusInternalServerError, "Internal server error.", err.Error())
		return
	}
	writePDF(w, "TicketReport.pdf", pdf)
}

// BookingReceipt → GET /reports/booked-ticket/{transactionId}
func (h *Handler) BookingReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionId"), 10, 64)
	if err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, "One or more validation errors occurred.", "BookedTicketTransactionId must be a whole number.")
		return
	}

	pdf, err := h.ReportService.BookingReceipt(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) || domain.IsInvalidArgument(err) {
			utils.WriteProblem(w, http.StatusBadRequest, "One or more validation errors occurred.", err.Error())
			return
		}
		h.Logger.Error("REPORT", fmt.Sprintf("BookingReceipt: %v", err))
		utils.WriteProblem(w, http.StatusInternalServerError, "Internal server error.", err.Error())
		return
	}
	writePDF(w, fmt.Sprintf("BookingReceipt-%d.pdf", id), pdf)
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
