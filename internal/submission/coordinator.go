package submission

import (
	"context"
	"fmt"
	"sync"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
)

// RemoteOutcome is what is known about the remote write. Unknown and
// Failed look the same to the visitor; operators see the difference.
type RemoteOutcome string

const (
	RemoteUnknown   RemoteOutcome = "unknown"
	RemoteConfirmed RemoteOutcome = "confirmed"
	RemoteFailed    RemoteOutcome = "failed"
	RemoteSkipped   RemoteOutcome = "skipped"
)

type Outcome struct {
	Confirmed bool          `json:"confirmed"`
	Remote    RemoteOutcome `json:"remote"`
}

type Sink interface {
	Send(ctx context.Context, rec models.BookingRecord) (RemoteOutcome, error)
}

type Ledger interface {
	Append(ctx context.Context, rec models.BookingRecord)
}

type SeatTracker interface {
	AddBooked(eventID string, tickets int)
}

type Coordinator struct {
	Sink   Sink
	Ledger Ledger
	Seats  SeatTracker
	Logger *logger.Logger

	mu    sync.Mutex
	stats map[RemoteOutcome]int
}

func NewCoordinator(sink Sink, ledger Ledger, seats SeatTracker, log *logger.Logger) *Coordinator {
	return &Coordinator{
		Sink:   sink,
		Ledger: ledger,
		Seats:  seats,
		Logger: log,
		stats:  make(map[RemoteOutcome]int),
	}
}

// Submit attempts the remote write, then always appends to the ledger,
// then bumps live seat counts. The booking is confirmed in every case:
// payment already happened out of band. Cancellation of ctx does not
// stop the ledger append.
func (c *Coordinator) Submit(ctx context.Context, rec models.BookingRecord) Outcome {
	ctx = context.WithoutCancel(ctx)

	remote, err := c.Sink.Send(ctx, rec)
	if err != nil {
		c.Logger.Error("SUBMIT", fmt.Sprintf("Error saving booking for %s to sink: %v", rec.EventID, err))
		remote = RemoteFailed
	}

	c.Ledger.Append(ctx, rec)

	if c.Seats != nil {
		c.Seats.AddBooked(rec.EventID, rec.Tickets)
	}

	c.mu.Lock()
	c.stats[remote]++
	c.mu.Unlock()

	c.Logger.LogSubmission(rec.EventID, string(remote), fmt.Sprintf("%d tickets, total %d", rec.Tickets, rec.TotalAmount))
	return Outcome{Confirmed: true, Remote: remote}
}

// Stats returns the count of submissions per remote outcome.
func (c *Coordinator) Stats() map[RemoteOutcome]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[RemoteOutcome]int, len(c.stats))
	for k, v := range c.stats {
		out[k] = v
	}
	return out
}
