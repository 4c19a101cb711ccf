package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

// SampleCategories and SampleTickets are the demo catalog loaded by Seed and
// by the postgres seed migration.
var SampleCategories = []models.Category{
	{CategoryID: 1, CategoryName: "Cinema"},
	{CategoryID: 2, CategoryName: "Concert"},
	{CategoryID: 3, CategoryName: "Transportation"},
	{CategoryID: 4, CategoryName: "Hotel"},
}

var SampleTickets = []models.Ticket{
	{TicketCode: "C001", CategoryID: 1, TicketName: "Avengers: Secret Wars", Price: 50000, Quota: 100,
		EventDateMinimal: day("2026-11-01 10:00:00"), EventDateMaximal: day("2026-12-31 22:00:00")},
	{TicketCode: "C002", CategoryID: 1, TicketName: "Dune: Part Three", Price: 55000, Quota: 80,
		EventDateMinimal: day("2026-11-15 10:00:00"), EventDateMaximal: day("2027-01-15 22:00:00")},
	{TicketCode: "K001", CategoryID: 2, TicketName: "Coldplay Jakarta VIP", Price: 3500000, Quota: 20,
		EventDateMinimal: day("2026-12-10 19:00:00"), EventDateMaximal: day("2026-12-10 23:00:00")},
	{TicketCode: "K002", CategoryID: 2, TicketName: "Coldplay Jakarta Festival", Price: 1500000, Quota: 200,
		EventDateMinimal: day("2026-12-10 19:00:00"), EventDateMaximal: day("2026-12-10 23:00:00")},
	{TicketCode: "T001", CategoryID: 3, TicketName: "Kereta Jakarta - Bandung", Price: 150000, Quota: 60,
		EventDateMinimal: day("2026-11-01 00:00:00"), EventDateMaximal: day("2027-03-31 23:59:59")},
	{TicketCode: "H001", CategoryID: 4, TicketName: "Deluxe Room Bali", Price: 1200000, Quota: 10,
		EventDateMinimal: day("2026-11-01 14:00:00"), EventDateMaximal: day("2027-06-30 12:00:00")},
	{TicketCode: "H002", CategoryID: 4, TicketName: "Suite Room Bali", Price: 2500000, Quota: 0,
		EventDateMinimal: day("2026-11-01 14:00:00"), EventDateMaximal: day("2027-06-30 12:00:00")},
}

// Seed loads the sample catalog when the categories table is empty.
func Seed(ctx context.Context, db *bun.DB) error {
	count, err := db.NewSelect().Model((*models.Category)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		categories := append([]models.Category(nil), SampleCategories...)
		if _, err := tx.NewInsert().Model(&categories).Exec(ctx); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		tickets := append([]models.Ticket(nil), SampleTickets...)
		if _, err := tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			return fmt.Errorf("seed tickets: %w", err)
		}
		return nil
	})
}
