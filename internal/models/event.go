package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusOpen       BookingStatus = "open"
	BookingStatusClosed     BookingStatus = "closed"
	BookingStatusSoldOut    BookingStatus = "sold_out"
	BookingStatusComingSoon BookingStatus = "coming_soon"
	BookingStatusCompleted  BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusOpen, BookingStatusClosed, BookingStatusSoldOut, BookingStatusComingSoon, BookingStatusCompleted:
		return true
	}
	return false
}

// EventDescriptor is one entry of the catalog document. It is immutable
// once the loader has resolved Day and Availability.
type EventDescriptor struct {
	ID                  string         `json:"id"`
	Title               string         `json:"title"`
	Artist              string         `json:"artist"`
	Venue               string         `json:"venue"`
	Description         string         `json:"description"`
	Time                string         `json:"time"`
	Date                string         `json:"date"`
	TicketPrice         int            `json:"ticketPrice"`
	TotalSeats          *int           `json:"totalSeats,omitempty"`
	BookedSeats         *int           `json:"bookedSeats,omitempty"`
	BookingStatus       *BookingStatus `json:"bookingStatus,omitempty"`
	AvailabilityMessage string         `json:"availabilityMessage,omitempty"`
	UPIID               string         `json:"upiId,omitempty"`
	MerchantName        string         `json:"merchantName,omitempty"`
	QRCodePath          string         `json:"qrCodePath,omitempty"`

	// Day is Date parsed to midnight UTC.
	Day          time.Time        `json:"-"`
	Availability AvailabilityMode `json:"-"`
}

// Catalog is the document served by the catalog source.
type Catalog struct {
	Events []EventDescriptor `json:"events"`
}

// AvailabilityMode is either RawCounts or StatusDriven.
type AvailabilityMode interface {
	availabilityMode()
}

// RawCounts tracks seats numerically; Booked may be overridden live from
// the ledger.
type RawCounts struct {
	Total  int
	Booked int
}

func (RawCounts) availabilityMode() {}

func (r RawCounts) Remaining() int {
	if r.Booked >= r.Total {
		return 0
	}
	return r.Total - r.Booked
}

// StatusDriven is the manually curated model: the status decides
// bookability and Message (if any) is shown verbatim.
type StatusDriven struct {
	Status  BookingStatus
	Message string
}

func (StatusDriven) availabilityMode() {}

// ResolveAvailability picks the mode for an event. An explicit
// bookingStatus always wins over seat counts.
func ResolveAvailability(e EventDescriptor) AvailabilityMode {
	if e.BookingStatus != nil && *e.BookingStatus != "" {
		return StatusDriven{Status: *e.BookingStatus, Message: e.AvailabilityMessage}
	}
	if e.TotalSeats != nil {
		booked := 0
		if e.BookedSeats != nil {
			booked = *e.BookedSeats
		}
		return RawCounts{Total: *e.TotalSeats, Booked: booked}
	}
	return StatusDriven{Status: BookingStatusOpen, Message: e.AvailabilityMessage}
}
