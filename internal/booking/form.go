package booking

import (
	"fmt"
	"sync"
	"time"

	"ayat-booking/internal/models"
)

// State is the lifecycle of one booking attempt:
// Closed -> Open -> Validating -> Submitted | Rejected.
// A rejected form goes back to Validating when resubmitted.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateValidating State = "validating"
	StateSubmitted  State = "submitted"
	StateRejected   State = "rejected"
)

// Form holds the in-progress state of one booking dialog.
type Form struct {
	mu         sync.Mutex
	id         string
	event      models.EventDescriptor
	state      State
	tickets    int
	maxTickets int
	openedAt   time.Time
}

type FormView struct {
	ID          string    `json:"formId"`
	EventID     string    `json:"eventId"`
	EventTitle  string    `json:"eventTitle"`
	State       State     `json:"state"`
	Tickets     int       `json:"tickets"`
	MaxTickets  int       `json:"maxTickets"`
	TicketPrice int       `json:"ticketPrice"`
	TotalAmount int       `json:"totalAmount"`
	OpenedAt    time.Time `json:"openedAt"`
}

func (f *Form) ID() string { return f.id }

func (f *Form) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view()
}

func (f *Form) view() FormView {
	return FormView{
		ID:          f.id,
		EventID:     f.event.ID,
		EventTitle:  f.event.Title,
		State:       f.state,
		Tickets:     f.tickets,
		MaxTickets:  f.maxTickets,
		TicketPrice: f.event.TicketPrice,
		TotalAmount: f.tickets * f.event.TicketPrice,
		OpenedAt:    f.openedAt,
	}
}

// SetTickets changes the ticket count and returns the new total.
func (f *Form) SetTickets(n int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := editable(f.state); err != nil {
		return 0, err
	}
	if n < 1 || n > f.maxTickets {
		return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrTicketsOutOfRange, n, f.maxTickets)
	}
	f.tickets = n
	return f.tickets * f.event.TicketPrice, nil
}

func editable(s State) error {
	switch s {
	case StateOpen, StateRejected:
		return nil
	case StateValidating:
		return ErrSubmissionInProgress
	case StateSubmitted:
		return ErrAlreadySubmitted
	}
	return ErrFormClosed
}

// begin moves the form to Validating and returns the state it left.
func (f *Form) begin() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := editable(f.state); err != nil {
		return f.state, err
	}
	prev := f.state
	f.state = StateValidating
	return prev, nil
}

// finish ends a submission attempt. A form closed mid-flight stays closed.
func (f *Form) finish(s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateValidating {
		f.state = s
	}
}

func (f *Form) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateValidating {
		f.state = StateClosed
	}
}

// expire closes the form if it was opened before cutoff and is not
// being submitted, and reports whether it did.
func (f *Form) expire(cutoff time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateValidating || !f.openedAt.Before(cutoff) {
		return false
	}
	f.state = StateClosed
	return true
}

func (f *Form) currentTickets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickets
}
