package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingCreated = "booking.created"
	BookingRevoked = "booking.revoked"
	BookingEdited  = "booking.edited"
)

// BookingEvent is published after a booking mutation commits.
type BookingEvent struct {
	EventID                   uuid.UUID          `json:"event_id"`
	Type                      string             `json:"type"`
	BookedTicketTransactionID int64              `json:"booked_ticket_transaction_id"`
	Lines                     []BookingEventLine `json:"lines"`
	OccurredAt                time.Time          `json:"occurred_at"`
}

type BookingEventLine struct {
	TicketCode string `json:"ticket_code"`
	Quantity   int    `json:"quantity"`
}

func NewBookingEvent(eventType string, transactionID int64, lines []BookingEventLine) BookingEvent {
	return BookingEvent{
		EventID:                   uuid.New(),
		Type:                      eventType,
		BookedTicketTransactionID: transactionID,
		Lines:                     lines,
		OccurredAt:                time.Now().UTC(),
	}
}
