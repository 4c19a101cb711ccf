package models

import "time"

// ---------------- CATALOG ----------------

// TicketQuery carries the optional catalog filters. Zero values mean "not set".
type TicketQuery struct {
	CategoryName string
	TicketCode   string
	TicketName   string
	MaxPrice     *float64
	EventDateMin *time.Time
	EventDateMax *time.Time
	OrderBy      string
	OrderState   string
	Page         int
	PageSize     int
}

type TicketOutput struct {
	TicketCode       string  `json:"ticketCode"`
	TicketName       string  `json:"ticketName"`
	CategoryName     string  `json:"categoryName"`
	Price            float64 `json:"price"`
	Quota            int     `json:"quota"`
	EventDateMinimal string  `json:"eventDateMinimal"`
	EventDateMaximal string  `json:"eventDateMaximal"`
}

type Pagination struct {
	TotalCount  int `json:"totalCount"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

type AvailableTicketsResponse struct {
	Data       []TicketOutput `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// BookedTicketRow is one live booked line, flattened for the report.
type BookedTicketRow struct {
	TicketCode   string    `json:"ticketCode"`
	TicketName   string    `json:"ticketName"`
	CategoryName string    `json:"categoryName"`
	Quantity     int       `json:"quantity"`
	BookingDate  time.Time `json:"bookingDate"`
}

// ---------------- BOOKING ----------------

type BookTicketRequest struct {
	Tickets []BookTicketLine `json:"tickets" validate:"dive"`
}

type BookTicketLine struct {
	TicketCode  string `json:"ticketCode" validate:"notblank"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	BookingDate string `json:"bookingDate" validate:"notblank"`
}

type BookTicketResponse struct {
	BookedTicketTransactionID int64                `json:"bookedTicketTransactionId"`
	Tickets                   []BookedTicketDetail `json:"tickets"`
	CategoryTotals            []CategorySummary    `json:"categoryTotals"`
	GrandTotal                float64              `json:"grandTotal"`
	TotalTickets              int                  `json:"totalTickets"`
}

type BookedTicketDetail struct {
	TicketCode   string    `json:"ticketCode"`
	TicketName   string    `json:"ticketName"`
	CategoryName string    `json:"categoryName"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	BookingDate  time.Time `json:"bookingDate"`
}

type CategorySummary struct {
	CategoryName string  `json:"categoryName"`
	TotalPrice   float64 `json:"totalPrice"`
}

type BookedTicketGroup struct {
	CategoryName   string             `json:"categoryName"`
	QtyPerCategory int                `json:"qtyPerCategory"`
	Tickets        []BookedTicketInfo `json:"tickets"`
}

type BookedTicketInfo struct {
	TicketCode  string    `json:"ticketCode"`
	TicketName  string    `json:"ticketName"`
	BookingDate time.Time `json:"bookingDate"`
	Quantity    int       `json:"quantity"`
}

type EditBookedTicketItem struct {
	TicketCode string `json:"ticketCode" validate:"notblank"`
	Quantity   int    `json:"quantity"`
}

// RemainingTicket is returned by revoke and edit.
type RemainingTicket struct {
	TicketCode        string `json:"ticketCode"`
	TicketName        string `json:"ticketName"`
	CategoryName      string `json:"categoryName"`
	RemainingQuantity int    `json:"remainingQuantity"`
}
