package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-booking/internal/models"
)

type tableDef struct {
	model       interface{}
	foreignKeys []string
}

// tables in dependency order
var tables = []tableDef{
	{model: (*models.Category)(nil)},
	{
		model:       (*models.Ticket)(nil),
		foreignKeys: []string{"(category_id) REFERENCES categories (category_id)"},
	},
	{model: (*models.BookedTicketTransaction)(nil)},
	{
		model: (*models.BookedTicket)(nil),
		foreignKeys: []string{
			"(booked_ticket_transaction_id) REFERENCES booked_ticket_transactions (booked_ticket_transaction_id) ON DELETE CASCADE",
			"(ticket_code) REFERENCES tickets (ticket_code)",
		},
	},
}

// CreateSchema builds the tables from the bun models. It backs the sqlite and
// mysql stores; postgres goes through the SQL migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", t.model, err)
		}
	}

	// mysql indexes foreign key columns on its own and has no CREATE INDEX IF NOT EXISTS
	if db.Dialect().Name() == dialect.MySQL {
		return nil
	}
	if _, err := db.NewCreateIndex().
		Model((*models.BookedTicket)(nil)).
		Index("idx_booked_tickets_transaction").
		IfNotExists().
		Column("booked_ticket_transaction_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("create booked_tickets index: %w", err)
	}
	return nil
}

// DropSchema removes every table, children first.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", tables[i].model, err)
		}
	}
	return nil
}
