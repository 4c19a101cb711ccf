package report

import (
	"context"
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type TicketSource interface {
	ListAllAvailable(ctx context.Context) ([]models.TicketOutput, error)
	GetBookedTickets(ctx context.Context) ([]models.BookedTicketRow, error)
}

type BookingSource interface {
	GetBookedLines(ctx context.Context, transactionID int64) ([]models.BookedTicket, error)
}

type ReportService struct {
	Tickets   TicketSource
	Bookings  BookingSource
	Generator *Generator
	QR        *QRGenerator
	Logger    *logger.Logger
}

func NewReportService(tickets TicketSource, bookings BookingSource, gen *Generator, qr *QRGenerator, log *logger.Logger) *ReportService {
	return &ReportService{Tickets: tickets, Bookings: bookings, Generator: gen, QR: qr, Logger: log}
}

// TicketReport assembles the full catalog and every booked line into one PDF.
func (s *ReportService) TicketReport(ctx context.Context) ([]byte, error) {
	available, err := s.Tickets.ListAllAvailable(ctx)
	if err != nil {
		return nil, err
	}
	booked, err := s.Tickets.GetBookedTickets(ctx)
	if err != nil {
		return nil, err
	}

	pdf, err := s.Generator.TicketReport(available, booked)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("REPORT", fmt.Sprintf("Ticket report generated: %d available, %d booked, %d bytes", len(available), len(booked), len(pdf)))
	return pdf, nil
}

// BookingReceipt renders one transaction. Unknown ids surface the booking
// engine's NotFound error.
func (s *ReportService) BookingReceipt(ctx context.Context, transactionID int64) ([]byte, error) {
	lines, err := s.Bookings.GetBookedLines(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	qr, err := s.QR.Generate(transactionID)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}
	return s.Generator.Receipt(transactionID, lines, qr)
}
