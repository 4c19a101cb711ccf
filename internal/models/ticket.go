package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:category"`

	CategoryID   int64  `bun:"category_id,pk,autoincrement"`
	CategoryName string `bun:"category_name,notnull,unique"`
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:ticket"`

	TicketCode       string    `bun:"ticket_code,pk"`
	CategoryID       int64     `bun:"category_id,notnull"`
	TicketName       string    `bun:"ticket_name,notnull"`
	Price            float64   `bun:"price,notnull"`
	Quota            int       `bun:"quota,notnull"`
	EventDateMinimal time.Time `bun:"event_date_minimal,notnull"`
	EventDateMaximal time.Time `bun:"event_date_maximal,notnull"`

	Category *Category `bun:"rel:belongs-to,join:category_id=category_id"`
}

// CategoryName is safe on tickets loaded without the relation.
func (t *Ticket) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.CategoryName
}
