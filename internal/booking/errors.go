package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ayat-booking/internal/availability"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrFormNotFound         = errors.New("booking form not found")
	ErrFormClosed           = errors.New("booking form is closed")
	ErrAlreadySubmitted     = errors.New("booking already submitted")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrTicketsOutOfRange    = errors.New("tickets out of range")
)

// NotBookableError is returned when a form is requested for an event
// that cannot currently be booked.
type NotBookableError struct {
	EventID string                      `json:"eventId"`
	Reason  availability.DisabledReason `json:"disabledReason"`
	Label   string                      `json:"label"`
}

func (e *NotBookableError) Error() string {
	return fmt.Sprintf("event %s is not bookable: %s", e.EventID, e.Reason)
}

// ValidationError maps form field names to user-facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid booking: " + strings.Join(names, ", ")
}
