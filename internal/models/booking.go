package models

import (
	"time"

	"github.com/uptrace/bun"
)

type FoodPreference string

const (
	FoodVegetarian    FoodPreference = "vegetarian"
	FoodNonVegetarian FoodPreference = "non-vegetarian"
	FoodVegan         FoodPreference = "vegan"
	FoodNone          FoodPreference = "none"
)

// BookingRecord is the snapshot of one completed booking attempt. The
// event fields are denormalized so the record stays meaningful if the
// catalog changes.
type BookingRecord struct {
	EventID          string         `json:"eventId"`
	EventTitle       string         `json:"eventTitle"`
	EventDate        string         `json:"eventDate"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Email            string         `json:"email"`
	Tickets          int            `json:"tickets"`
	FoodPreference   FoodPreference `json:"foodPreference"`
	UPITransactionID string         `json:"upiTransactionId"`
	SpecialRequests  string         `json:"specialRequests"`
	BookingDate      time.Time      `json:"bookingDate"`
	TotalAmount      int            `json:"totalAmount"`
}

// SinkRow is one row of the sink's durable bookings table.
type SinkRow struct {
	bun.BaseModel `bun:"table:bookings"`

	ID               int64     `bun:"id,pk,autoincrement" json:"row"`
	ReceivedAt       time.Time `bun:"received_at,notnull" json:"receivedAt"`
	EventID          string    `bun:"event_id,notnull" json:"eventId"`
	EventTitle       string    `bun:"event_title" json:"eventTitle"`
	EventDate        string    `bun:"event_date" json:"eventDate"`
	Name             string    `bun:"name" json:"name"`
	Phone            string    `bun:"phone" json:"phone"`
	Email            string    `bun:"email" json:"email"`
	Tickets          int       `bun:"tickets" json:"tickets"`
	FoodPreference   string    `bun:"food_preference" json:"foodPreference"`
	UPITransactionID string    `bun:"upi_transaction_id" json:"upiTransactionId"`
	TotalAmount      int       `bun:"total_amount" json:"totalAmount"`
	SpecialRequests  string    `bun:"special_requests" json:"specialRequests"`
	BookingDate      time.Time `bun:"booking_date,nullzero" json:"bookingDate"`
}

func NewSinkRow(rec BookingRecord, receivedAt time.Time) SinkRow {
	return SinkRow{
		ReceivedAt:       receivedAt,
		EventID:          rec.EventID,
		EventTitle:       rec.EventTitle,
		EventDate:        rec.EventDate,
		Name:             rec.Name,
		Phone:            rec.Phone,
		Email:            rec.Email,
		Tickets:          rec.Tickets,
		FoodPreference:   string(rec.FoodPreference),
		UPITransactionID: rec.UPITransactionID,
		TotalAmount:      rec.TotalAmount,
		SpecialRequests:  rec.SpecialRequests,
		BookingDate:      rec.BookingDate,
	}
}

// SinkEnvelope is the sink's reply when the transport can read it.
type SinkEnvelope struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Row     *int64 `json:"row,omitempty"`
}

const (
	SinkResultSuccess = "success"
	SinkResultError   = "error"
)
