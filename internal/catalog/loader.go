package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
)

// LoadErrorMessage is the banner shown instead of the listing.
const LoadErrorMessage = "Unable to load events. Please refresh the page."

// LoadError is returned for any network, read or parse failure of the
// catalog. It is fatal to the listing view; there is no retry.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type Loader struct {
	Source string
	Client *http.Client
	Logger *logger.Logger
}

func NewLoader(source string, client *http.Client, log *logger.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{Source: source, Client: client, Logger: log}
}

// Load fetches and parses the catalog once.
func (l *Loader) Load(ctx context.Context) ([]models.EventDescriptor, error) {
	l.Logger.Info("CATALOG", fmt.Sprintf("Loading events from %s", l.Source))

	body, err := l.fetch(ctx)
	if err != nil {
		l.Logger.Error("CATALOG", fmt.Sprintf("Error loading events: %v", err))
		return nil, &LoadError{Source: l.Source, Err: err}
	}

	events, err := Parse(body)
	if err != nil {
		l.Logger.Error("CATALOG", fmt.Sprintf("Error parsing events: %v", err))
		return nil, &LoadError{Source: l.Source, Err: err}
	}

	l.Logger.Info("CATALOG", fmt.Sprintf("Loaded %d events", len(events)))
	return events, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(l.Source, "http://") && !strings.HasPrefix(l.Source, "https://") {
		return os.ReadFile(strings.TrimPrefix(l.Source, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Parse decodes a catalog document and resolves each event's day and
// availability mode.
func Parse(body []byte) ([]models.EventDescriptor, error) {
	var doc models.Catalog
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed catalog: %w", err)
	}
	if doc.Events == nil {
		return nil, fmt.Errorf("malformed catalog: missing events")
	}

	seen := make(map[string]bool, len(doc.Events))
	for i := range doc.Events {
		e := &doc.Events[i]
		if e.ID == "" {
			return nil, fmt.Errorf("event %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate event id %q", e.ID)
		}
		seen[e.ID] = true

		if e.TicketPrice <= 0 {
			return nil, fmt.Errorf("event %s: ticketPrice must be positive", e.ID)
		}
		if e.BookingStatus != nil && *e.BookingStatus != "" && !e.BookingStatus.Valid() {
			return nil, fmt.Errorf("event %s: unknown bookingStatus %q", e.ID, *e.BookingStatus)
		}

		day, err := ParseDay(e.Date)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		e.Day = day
		e.Availability = models.ResolveAvailability(*e)
	}
	return doc.Events, nil
}

// ParseDay accepts 2006-01-02 or RFC 3339 and drops the time of day.
func ParseDay(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
