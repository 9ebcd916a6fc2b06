package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ayat-booking/internal/availability"
	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
	"ayat-booking/internal/submission"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type EventSource interface {
	Event(id string) (models.EventDescriptor, bool)
}

type Submitter interface {
	Submit(ctx context.Context, rec models.BookingRecord) submission.Outcome
}

type InFlightLock interface {
	Acquire(ctx context.Context, formID, owner string) (bool, error)
	Release(ctx context.Context, formID, owner string) error
}

const DefaultFormTTL = 30 * time.Minute

type Controller struct {
	Events      EventSource
	Evaluator   *availability.Evaluator
	Coordinator Submitter
	Lock        InFlightLock
	Logger      *logger.Logger

	// FormTTL is how long an opened form may sit unfinished before the
	// next Open discards it. Zero keeps forms until closed or submitted.
	FormTTL time.Duration

	validate *validator.Validate

	mu    sync.Mutex
	forms map[string]*Form
}

func NewController(events EventSource, ev *availability.Evaluator, coord Submitter, lock InFlightLock, log *logger.Logger) *Controller {
	return &Controller{
		Events:      events,
		Evaluator:   ev,
		Coordinator: coord,
		Lock:        lock,
		Logger:      log,
		FormTTL:     DefaultFormTTL,
		validate:    newValidator(),
		forms:       make(map[string]*Form),
	}
}

// Confirmation is what the visitor sees after a submission. The remote
// outcome is kept for operators only.
type Confirmation struct {
	FormID      string                   `json:"formId"`
	Booking     models.BookingRecord     `json:"booking"`
	Message     string                   `json:"message"`
	EmailNotice string                   `json:"emailNotice"`
	ArrivalNote string                   `json:"arrivalNote"`
	Remote      submission.RemoteOutcome `json:"-"`
}

const ArrivalNote = "Please arrive 15 minutes before the event. Looking forward to seeing you at the baithak!"

func newConfirmation(formID string, rec models.BookingRecord, out submission.Outcome) Confirmation {
	return Confirmation{
		FormID:      formID,
		Booking:     rec,
		Message:     fmt.Sprintf("Thank you, %s! Your booking for %s has been confirmed.", rec.Name, rec.EventTitle),
		EmailNotice: fmt.Sprintf("You will receive a confirmation email at %s shortly.", rec.Email),
		ArrivalNote: ArrivalNote,
		Remote:      out.Remote,
	}
}

// Open starts a booking form for eventID if the event can be booked now.
func (c *Controller) Open(eventID string) (*Form, error) {
	e, ok := c.Events.Event(eventID)
	if !ok {
		return nil, ErrEventNotFound
	}

	now := c.Evaluator.Now()
	el := c.Evaluator.Evaluate(e, now)
	if !el.CanBook {
		c.Logger.LogBooking("REFUSED", eventID, fmt.Sprintf("Event not bookable: %s", el.DisabledReason))
		return nil, &NotBookableError{EventID: eventID, Reason: el.DisabledReason, Label: el.Label}
	}

	f := &Form{
		id:         uuid.NewString(),
		event:      e,
		state:      StateOpen,
		tickets:    1,
		maxTickets: el.Cap,
		openedAt:   now.UTC(),
	}

	c.mu.Lock()
	c.sweep(now)
	c.forms[f.id] = f
	c.mu.Unlock()

	c.Logger.LogBooking("OPENED", f.id, fmt.Sprintf("Form opened for %s (max %d tickets)", eventID, el.Cap))
	return f, nil
}

func (c *Controller) Form(formID string) (*Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.forms[formID]
	if !ok {
		return nil, ErrFormNotFound
	}
	return f, nil
}

// sweep drops forms opened more than FormTTL ago that are not mid-submit.
// Callers hold c.mu.
func (c *Controller) sweep(now time.Time) {
	if c.FormTTL <= 0 {
		return
	}
	cutoff := now.Add(-c.FormTTL)
	for id, f := range c.forms {
		if f.expire(cutoff) {
			delete(c.forms, id)
			c.Logger.LogBooking("EXPIRED", id, "Unfinished form discarded")
		}
	}
}

// release removes a finished form from the registry.
func (c *Controller) release(f *Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forms[f.id] == f {
		delete(c.forms, f.id)
	}
}

// SetTickets updates the ticket count of an open form.
func (c *Controller) SetTickets(formID string, n int) (FormView, error) {
	f, err := c.Form(formID)
	if err != nil {
		return FormView{}, err
	}
	if _, err := f.SetTickets(n); err != nil {
		return FormView{}, err
	}
	return f.View(), nil
}

// Close discards the form. A submission already in flight still runs to
// completion.
func (c *Controller) Close(formID string) error {
	c.mu.Lock()
	f, ok := c.forms[formID]
	delete(c.forms, formID)
	c.mu.Unlock()

	if !ok {
		return ErrFormNotFound
	}
	f.close()
	c.Logger.LogBooking("CLOSED", formID, "Form closed")
	return nil
}

// Submit validates in against the current event state, builds the
// booking record and hands it to the coordinator.
func (c *Controller) Submit(ctx context.Context, formID string, in Input) (Confirmation, error) {
	f, err := c.Form(formID)
	if err != nil {
		return Confirmation{}, err
	}

	prev, err := f.begin()
	if err != nil {
		return Confirmation{}, err
	}

	if c.Lock != nil {
		owner := uuid.NewString()
		held, err := c.Lock.Acquire(ctx, formID, owner)
		if err != nil {
			c.Logger.Warn("BOOKING", fmt.Sprintf("Submit lock unavailable for form %s: %v", formID, err))
		} else if !held {
			f.finish(prev)
			return Confirmation{}, ErrSubmissionInProgress
		} else {
			defer func() {
				if err := c.Lock.Release(context.WithoutCancel(ctx), formID, owner); err != nil {
					c.Logger.Warn("BOOKING", fmt.Sprintf("Failed to release submit lock for form %s: %v", formID, err))
				}
			}()
		}
	}

	e, ok := c.Events.Event(f.event.ID)
	if !ok {
		e = f.event
	}

	now := c.Evaluator.Now()
	el := c.Evaluator.Evaluate(e, now)
	if !el.CanBook {
		f.finish(StateRejected)
		return Confirmation{}, &NotBookableError{EventID: e.ID, Reason: el.DisabledReason, Label: el.Label}
	}

	in = in.trimmed()
	if in.Tickets == 0 {
		in.Tickets = f.currentTickets()
	}

	if verr := c.validateInput(in, el.Cap, el.Available); verr != nil {
		f.finish(StateRejected)
		c.Logger.LogBooking("REJECTED", formID, verr.Error())
		return Confirmation{}, verr
	}

	rec := models.BookingRecord{
		EventID:          e.ID,
		EventTitle:       e.Title,
		EventDate:        e.Date,
		Name:             in.Name,
		Phone:            in.Phone,
		Email:            in.Email,
		Tickets:          in.Tickets,
		FoodPreference:   in.FoodPreference,
		UPITransactionID: in.UPITransactionID,
		SpecialRequests:  in.SpecialRequests,
		BookingDate:      now.UTC(),
		TotalAmount:      in.Tickets * e.TicketPrice,
	}

	out := c.Coordinator.Submit(ctx, rec)
	f.finish(StateSubmitted)
	c.release(f)

	c.Logger.LogBooking("SUBMITTED", formID, fmt.Sprintf("%d tickets for %s, total %d", rec.Tickets, rec.EventID, rec.TotalAmount))
	return newConfirmation(formID, rec, out), nil
}
