package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-booking/internal/booking"
	"ms-booking/internal/database"
	"ms-booking/internal/models"
)

// DB is the booking store. Inside InTx the same type runs on the transaction.
type DB struct {
	Bun *bun.DB
	idb bun.IDB
}

func New(db *bun.DB) *DB {
	return &DB{Bun: db}
}

func (d *DB) conn() bun.IDB {
	if d.idb != nil {
		return d.idb
	}
	return d.Bun
}

// InTx runs fn inside one database transaction. fn's error rolls it back.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, repo booking.Repository) error) error {
	if d.idb != nil {
		return fn(ctx, d)
	}
	return d.Bun.RunInTx(ctx, database.TxOptions(d.Bun), func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: d.Bun, idb: tx})
	})
}

// ---------------- TICKETS ----------------

// GetTicket → ticket with its category, nil when the code is unknown
func (d *DB) GetTicket(ctx context.Context, code string) (*models.Ticket, error) {
	ticket := new(models.Ticket)
	err := d.conn().NewSelect().
		Model(ticket).
		Relation("Category").
		Where("ticket.ticket_code = ?", code).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", code, err)
	}
	return ticket, nil
}

// DecrementQuota → false when the ticket has fewer than qty left
func (d *DB) DecrementQuota(ctx context.Context, code string, qty int) (bool, error) {
	res, err := d.conn().NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("quota = quota - ?", qty).
		Where("ticket_code = ?", code).
		Where("quota >= ?", qty).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("decrement quota %s: %w", code, err)
	}
	return affected(res)
}

// AdjustQuota adds delta (either sign) to the quota. It reports false when the
// result would drop below zero or the ticket is unknown.
func (d *DB) AdjustQuota(ctx context.Context, code string, delta int) (bool, error) {
	if delta == 0 {
		return true, nil
	}
	res, err := d.conn().NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("quota = quota + ?", delta).
		Where("ticket_code = ?", code).
		Where("quota + ? >= 0", delta).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("adjust quota %s: %w", code, err)
	}
	return affected(res)
}

// ---------------- TRANSACTIONS ----------------

// CreateTransaction inserts trx, fills its id and stores the lines under it.
func (d *DB) CreateTransaction(ctx context.Context, trx *models.BookedTicketTransaction, lines []models.BookedTicket) error {
	if _, err := d.conn().NewInsert().Model(trx).Exec(ctx); err != nil {
		return fmt.Errorf("insert booked ticket transaction: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].BookedTicketTransactionID = trx.BookedTicketTransactionID
	}
	if _, err := d.conn().NewInsert().Model(&lines).Exec(ctx); err != nil {
		return fmt.Errorf("insert booked tickets: %w", err)
	}
	return nil
}

// GetBookedLines → live lines of one transaction with ticket and category
func (d *DB) GetBookedLines(ctx context.Context, transactionID int64) ([]models.BookedTicket, error) {
	var lines []models.BookedTicket
	err := d.conn().NewSelect().
		Model(&lines).
		Relation("Ticket").
		Relation("Ticket.Category").
		Where("booked_ticket.booked_ticket_transaction_id = ?", transactionID).
		OrderExpr("booked_ticket.booked_ticket_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get booked tickets of %d: %w", transactionID, err)
	}
	return lines, nil
}

func (d *DB) GetTransaction(ctx context.Context, transactionID int64) (*models.BookedTicketTransaction, error) {
	trx := new(models.BookedTicketTransaction)
	err := d.conn().NewSelect().
		Model(trx).
		Where("booked_ticket_transaction_id = ?", transactionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booked ticket transaction %d: %w", transactionID, err)
	}
	return trx, nil
}

func (d *DB) UpdateLineQuantity(ctx context.Context, lineID int64, qty int) error {
	_, err := d.conn().NewUpdate().
		Model((*models.BookedTicket)(nil)).
		Set("quantity = ?", qty).
		Where("booked_ticket_id = ?", lineID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update booked ticket %d: %w", lineID, err)
	}
	return nil
}

func (d *DB) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := d.conn().NewDelete().
		Model((*models.BookedTicket)(nil)).
		Where("booked_ticket_id = ?", lineID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete booked ticket %d: %w", lineID, err)
	}
	return nil
}

// RecomputeTotals rewrites the transaction totals from its live lines and
// deletes the transaction once none remain. It returns the new ticket total.
func (d *DB) RecomputeTotals(ctx context.Context, transactionID int64) (int, error) {
	// SUM over no rows is NULL, and sqlite hands back an integer 0 from
	// COALESCE(..., 0), so the price goes through NullFloat64 instead.
	var totals struct {
		Tickets int             `bun:"tickets"`
		Price   sql.NullFloat64 `bun:"price"`
	}
	err := d.conn().NewSelect().
		Model((*models.BookedTicket)(nil)).
		ColumnExpr("COALESCE(SUM(booked_ticket.quantity), 0) AS tickets").
		ColumnExpr("SUM(booked_ticket.quantity * booked_ticket.price) AS price").
		Where("booked_ticket.booked_ticket_transaction_id = ?", transactionID).
		Scan(ctx, &totals)
	if err != nil {
		return 0, fmt.Errorf("sum booked tickets of %d: %w", transactionID, err)
	}

	if totals.Tickets == 0 {
		_, err = d.conn().NewDelete().
			Model((*models.BookedTicketTransaction)(nil)).
			Where("booked_ticket_transaction_id = ?", transactionID).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("delete booked ticket transaction %d: %w", transactionID, err)
		}
		return 0, nil
	}

	_, err = d.conn().NewUpdate().
		Model((*models.BookedTicketTransaction)(nil)).
		Set("total_tickets = ?", totals.Tickets).
		Set("summary_price = ?", totals.Price.Float64).
		Where("booked_ticket_transaction_id = ?", transactionID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("update booked ticket transaction %d: %w", transactionID, err)
	}
	return totals.Tickets, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

var _ booking.DBLayer = (*DB)(nil)
