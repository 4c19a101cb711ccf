package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookedTicketTransaction struct {
	bun.BaseModel `bun:"table:booked_ticket_transactions,alias:booked_ticket_transaction"`

	BookedTicketTransactionID int64     `bun:"booked_ticket_transaction_id,pk,autoincrement"`
	TotalTickets              int       `bun:"total_tickets,notnull"`
	SummaryPrice              float64   `bun:"summary_price,notnull"`
	CreatedAt                 time.Time `bun:"created_at,notnull"`
}

type BookedTicket struct {
	bun.BaseModel `bun:"table:booked_tickets,alias:booked_ticket"`

	BookedTicketID            int64     `bun:"booked_ticket_id,pk,autoincrement"`
	BookedTicketTransactionID int64     `bun:"booked_ticket_transaction_id,notnull"`
	TicketCode                string    `bun:"ticket_code,notnull"`
	Quantity                  int       `bun:"quantity,notnull"`
	Price                     float64   `bun:"price,notnull"`
	BookedDate                time.Time `bun:"booked_date,notnull"`
	CreatedAt                 time.Time `bun:"created_at,notnull"`

	Ticket *Ticket `bun:"rel:belongs-to,join:ticket_code=ticket_code"`
}

func (b *BookedTicket) TicketName() string {
	if b.Ticket == nil {
		return ""
	}
	return b.Ticket.TicketName
}

func (b *BookedTicket) CategoryName() string {
	if b.Ticket == nil {
		return ""
	}
	return b.Ticket.CategoryName()
}
