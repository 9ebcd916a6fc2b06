package availability

import (
	"fmt"
	"sort"
	"time"

	"ayat-booking/internal/models"
)

type DisabledReason string

const (
	ReasonNone       DisabledReason = ""
	ReasonSoldOut    DisabledReason = "sold_out"
	ReasonClosed     DisabledReason = "closed"
	ReasonComingSoon DisabledReason = "coming_soon"
	ReasonCompleted  DisabledReason = "completed"
	ReasonPast       DisabledReason = "past"
)

const (
	LabelBook       = "Book Your Seat"
	LabelSoldOut    = "Sold Out"
	LabelComingSoon = "Booking Opens Soon"
	LabelCompleted  = "Event Completed"
)

// Eligibility is what the listing shows for one event and what the form
// controller checks before opening a form.
type Eligibility struct {
	CanBook        bool           `json:"canBook"`
	Label          string         `json:"label"`
	SeatLine       string         `json:"seatLine"`
	DisabledReason DisabledReason `json:"disabledReason,omitempty"`
	// Available is only set when seats are counted.
	Available *int `json:"available,omitempty"`
	// Cap is the largest ticket count one booking may take.
	Cap int `json:"cap"`
}

// Evaluator is shared by the listing and the form controller so both
// agree on what "today" is.
type Evaluator struct {
	HardCap int
	Clock   func() time.Time
}

func NewEvaluator(hardCap int) *Evaluator {
	if hardCap <= 0 {
		hardCap = 10
	}
	return &Evaluator{HardCap: hardCap, Clock: time.Now}
}

// Now is the current time on the evaluator's clock. Its location decides
// the calendar date used for the past/upcoming split.
func (ev *Evaluator) Now() time.Time {
	if ev.Clock == nil {
		return time.Now()
	}
	return ev.Clock()
}

// Partition splits events into upcoming (day >= today, ascending) and
// past (day < today, descending). Time of day is ignored.
func Partition(events []models.EventDescriptor, today time.Time) (upcoming, past []models.EventDescriptor) {
	today = truncate(today)
	for _, e := range events {
		if e.Day.Before(today) {
			past = append(past, e)
		} else {
			upcoming = append(upcoming, e)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Day.Before(upcoming[j].Day) })
	sort.SliceStable(past, func(i, j int) bool { return past[i].Day.After(past[j].Day) })
	return upcoming, past
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Evaluate derives the eligibility of e as of today.
func (ev *Evaluator) Evaluate(e models.EventDescriptor, today time.Time) Eligibility {
	if e.Day.Before(truncate(today)) {
		return Eligibility{Label: LabelCompleted, SeatLine: "This event has concluded", DisabledReason: ReasonPast}
	}

	switch mode := e.Availability.(type) {
	case models.RawCounts:
		remaining := mode.Remaining()
		el := Eligibility{Available: &remaining}
		if remaining <= 0 {
			el.Label = LabelSoldOut
			el.SeatLine = "SOLD OUT"
			el.DisabledReason = ReasonSoldOut
			return el
		}
		el.CanBook = true
		el.Label = LabelBook
		el.SeatLine = fmt.Sprintf("%d seats available out of %d", remaining, mode.Total)
		el.Cap = min(ev.HardCap, remaining)
		return el

	case models.StatusDriven:
		el := Eligibility{SeatLine: mode.Message}
		switch mode.Status {
		case models.BookingStatusOpen:
			el.CanBook = true
			el.Label = LabelBook
			el.Cap = ev.HardCap
		case models.BookingStatusClosed:
			el.Label = LabelSoldOut
			el.DisabledReason = ReasonClosed
		case models.BookingStatusSoldOut:
			el.Label = LabelSoldOut
			el.DisabledReason = ReasonSoldOut
		case models.BookingStatusComingSoon:
			el.Label = LabelComingSoon
			el.DisabledReason = ReasonComingSoon
		case models.BookingStatusCompleted:
			el.Label = LabelCompleted
			el.DisabledReason = ReasonCompleted
		}
		if el.SeatLine == "" {
			el.SeatLine = fallbackSeatLine(mode.Status)
		}
		return el
	}

	// Unresolved events are treated like the default status.
	e.Availability = models.StatusDriven{Status: models.BookingStatusOpen}
	return ev.Evaluate(e, today)
}

func fallbackSeatLine(status models.BookingStatus) string {
	switch status {
	case models.BookingStatusClosed, models.BookingStatusSoldOut:
		return "SOLD OUT"
	case models.BookingStatusComingSoon:
		return "Booking opens soon"
	case models.BookingStatusCompleted:
		return "This event has concluded"
	default:
		return "Seats available"
	}
}

// BookingCap is min(hardCap, remaining) when seats are counted and
// hardCap otherwise.
func BookingCap(e models.EventDescriptor, hardCap int) int {
	if raw, ok := e.Availability.(models.RawCounts); ok {
		return min(hardCap, raw.Remaining())
	}
	return hardCap
}
