package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-booking/internal/database"
	"ms-booking/internal/models"
)

// SortColumns maps the lower-cased order keys to their column.
var SortColumns = map[string]string{
	"categoryname":     "category.category_name",
	"ticketcode":       "ticket.ticket_code",
	"ticketname":       "ticket.ticket_name",
	"price":            "ticket.price",
	"eventdateminimal": "ticket.event_date_minimal",
	"eventdatemaximal": "ticket.event_date_maximal",
}

type DB struct {
	Bun *bun.DB
}

// ---------------- CATALOG ----------------

// CountTickets → every ticket row, sold out or not
func (d *DB) CountTickets(ctx context.Context) (int, error) {
	n, err := d.Bun.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

// FindAvailable → one page of tickets with quota left plus the total match
// count. q.OrderBy must already be a SortColumns key and q.OrderState asc or
// desc. A zero limit returns every match.
func (d *DB) FindAvailable(ctx context.Context, q models.TicketQuery, limit, offset int) ([]models.Ticket, int, error) {
	var tickets []models.Ticket

	query := d.Bun.NewSelect().
		Model(&tickets).
		Relation("Category").
		Where("ticket.quota > 0")

	if q.CategoryName != "" {
		query = query.Where(database.Contains(d.Bun, "category.category_name"), q.CategoryName)
	}
	if q.TicketCode != "" {
		query = query.Where(database.Contains(d.Bun, "ticket.ticket_code"), q.TicketCode)
	}
	if q.TicketName != "" {
		query = query.Where(database.Contains(d.Bun, "ticket.ticket_name"), q.TicketName)
	}
	if q.MaxPrice != nil {
		query = query.Where("ticket.price <= ?", *q.MaxPrice)
	}
	if q.EventDateMin != nil {
		query = query.Where("ticket.event_date_minimal >= ?", q.EventDateMin.UTC())
	}
	if q.EventDateMax != nil {
		query = query.Where("ticket.event_date_maximal <= ?", q.EventDateMax.UTC())
	}

	column, ok := SortColumns[q.OrderBy]
	if !ok {
		column = SortColumns["ticketcode"]
	}
	direction := "ASC"
	if q.OrderState == "desc" {
		direction = "DESC"
	}
	query = query.OrderExpr(column + " " + direction)
	if column != SortColumns["ticketcode"] {
		query = query.OrderExpr("ticket.ticket_code ASC")
	}

	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("query available tickets: %w", err)
	}
	return tickets, total, nil
}

// ListBookedTickets → every live booked line with its ticket and category
func (d *DB) ListBookedTickets(ctx context.Context) ([]models.BookedTicket, error) {
	var lines []models.BookedTicket
	err := d.Bun.NewSelect().
		Model(&lines).
		Relation("Ticket").
		Relation("Ticket.Category").
		OrderExpr("booked_ticket.booked_ticket_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query booked tickets: %w", err)
	}
	return lines, nil
}
