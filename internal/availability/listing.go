package availability

import (
	"time"

	"ayat-booking/internal/models"
)

type Card struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Artist        string       `json:"artist"`
	Venue         string       `json:"venue"`
	Description   string       `json:"description"`
	Date          string       `json:"date"`
	FormattedDate string       `json:"formattedDate"`
	Time          string       `json:"time"`
	TicketPrice   int          `json:"ticketPrice"`
	Eligibility   *Eligibility `json:"eligibility,omitempty"`
}

type Listing struct {
	Upcoming []Card `json:"upcoming"`
	Past     []Card `json:"past"`
}

// BuildListing partitions the events and evaluates every upcoming one.
// Past cards carry no eligibility.
func (ev *Evaluator) BuildListing(events []models.EventDescriptor, today time.Time) Listing {
	upcoming, past := Partition(events, today)

	listing := Listing{Upcoming: make([]Card, 0, len(upcoming)), Past: make([]Card, 0, len(past))}
	for _, e := range upcoming {
		el := ev.Evaluate(e, today)
		card := newCard(e)
		card.Eligibility = &el
		listing.Upcoming = append(listing.Upcoming, card)
	}
	for _, e := range past {
		listing.Past = append(listing.Past, newCard(e))
	}
	return listing
}

func newCard(e models.EventDescriptor) Card {
	return Card{
		ID:            e.ID,
		Title:         e.Title,
		Artist:        e.Artist,
		Venue:         e.Venue,
		Description:   e.Description,
		Date:          e.Date,
		FormattedDate: FormatDate(e.Day),
		Time:          e.Time,
		TicketPrice:   e.TicketPrice,
	}
}

// FormatDate renders a day the way the listing shows it, e.g.
// "Thursday, 14 March 2030".
func FormatDate(day time.Time) string {
	return day.Format("Monday, 2 January 2006")
}
