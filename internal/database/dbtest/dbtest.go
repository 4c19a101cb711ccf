// Package dbtest opens throwaway in-memory sqlite stores for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-booking/internal/database"
	"ms-booking/internal/models"
)

// New returns an empty schema in a private in-memory database.
func New(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateSchema(context.Background(), db))
	return db
}

// Date parses "2006-01-02 15:04:05" in UTC and fails the test on error.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02 15:04:05", s)
	require.NoError(t, err)
	return d
}

// AddCategory inserts a category and returns its id.
func AddCategory(t *testing.T, db bun.IDB, name string) int64 {
	t.Helper()
	c := &models.Category{CategoryName: name}
	_, err := db.NewInsert().Model(c).Exec(context.Background())
	require.NoError(t, err)
	return c.CategoryID
}

// AddTicket inserts a ticket open from 2026-01-01 to 2026-12-31.
func AddTicket(t *testing.T, db bun.IDB, categoryID int64, code, name string, price float64, quota int) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		TicketCode:       code,
		CategoryID:       categoryID,
		TicketName:       name,
		Price:            price,
		Quota:            quota,
		EventDateMinimal: Date(t, "2026-01-01 00:00:00"),
		EventDateMaximal: Date(t, "2026-12-31 23:59:59"),
	}
	_, err := db.NewInsert().Model(ticket).Exec(context.Background())
	require.NoError(t, err)
	return ticket
}

// Quota reads a ticket's remaining quota.
func Quota(t *testing.T, db bun.IDB, code string) int {
	t.Helper()
	var ticket models.Ticket
	err := db.NewSelect().Model(&ticket).Where("ticket_code = ?", code).Scan(context.Background())
	require.NoError(t, err)
	return ticket.Quota
}
