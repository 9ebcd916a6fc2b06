package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrClearNotConfirmed is returned by Clear when the token was never
// issued, has expired or was already used.
var ErrClearNotConfirmed = errors.New("clear not confirmed")

// Ledger is the append-only local backup of booking records. All records
// live in one Redis list under Key, in insertion order.
type Ledger struct {
	Client     *redis.Client
	Key        string
	ConfirmTTL time.Duration
	Logger     *logger.Logger
}

func NewLedger(client *redis.Client, key string, confirmTTL time.Duration, log *logger.Logger) *Ledger {
	if key == "" {
		key = "ayatBookings"
	}
	if confirmTTL <= 0 {
		confirmTTL = 2 * time.Minute
	}
	return &Ledger{Client: client, Key: key, ConfirmTTL: confirmTTL, Logger: log}
}

// Append persists one record. It never fails the caller: the ledger is a
// backup, so storage errors are only logged.
func (l *Ledger) Append(ctx context.Context, rec models.BookingRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		l.Logger.Error("LEDGER", fmt.Sprintf("Failed to encode booking for %s: %v", rec.EventID, err))
		return
	}
	if err := l.Client.RPush(ctx, l.Key, data).Err(); err != nil {
		l.Logger.Error("LEDGER", fmt.Sprintf("Failed to save booking for %s locally: %v", rec.EventID, err))
		return
	}
	l.Logger.Debug("LEDGER", fmt.Sprintf("Saved booking for %s (%d tickets)", rec.EventID, rec.Tickets))
}

// All returns every stored record in insertion order.
func (l *Ledger) All(ctx context.Context) ([]models.BookingRecord, error) {
	items, err := l.Client.LRange(ctx, l.Key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}

	records := make([]models.BookingRecord, 0, len(items))
	for i, item := range items {
		var rec models.BookingRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			l.Logger.Warn("LEDGER", fmt.Sprintf("Skipping unreadable booking at index %d: %v", i, err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

type ClearConfirmation struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (l *Ledger) confirmKey(token string) string {
	return l.Key + ":clear:" + token
}

// RequestClear issues a one-time token that Clear must be called with.
func (l *Ledger) RequestClear(ctx context.Context) (ClearConfirmation, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, l.confirmKey(token), "pending", l.ConfirmTTL).Result()
	if err != nil {
		return ClearConfirmation{}, fmt.Errorf("failed to issue clear confirmation: %w", err)
	}
	if !ok {
		return ClearConfirmation{}, fmt.Errorf("clear confirmation %s already exists", token)
	}
	l.Logger.Warn("LEDGER", "Clear of all bookings requested, waiting for confirmation")
	return ClearConfirmation{Token: token, ExpiresAt: time.Now().Add(l.ConfirmTTL)}, nil
}

// Clear irreversibly removes every record. The token is consumed whether
// or not the delete succeeds.
func (l *Ledger) Clear(ctx context.Context, token string) error {
	if token == "" {
		return ErrClearNotConfirmed
	}
	n, err := l.Client.Del(ctx, l.confirmKey(token)).Result()
	if err != nil {
		return fmt.Errorf("failed to check clear confirmation: %w", err)
	}
	if n == 0 {
		return ErrClearNotConfirmed
	}
	if err := l.Client.Del(ctx, l.Key).Err(); err != nil {
		return fmt.Errorf("failed to clear bookings: %w", err)
	}
	l.Logger.Warn("LEDGER", "All bookings cleared")
	return nil
}

// RecomputeBookedSeats sums tickets per event for the events whose seats
// are counted. Status-driven events are not in the result.
func (l *Ledger) RecomputeBookedSeats(ctx context.Context, events []models.EventDescriptor) (map[string]int, error) {
	records, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	return SumTickets(records, events), nil
}

func SumTickets(records []models.BookingRecord, events []models.EventDescriptor) map[string]int {
	booked := make(map[string]int)
	for _, e := range events {
		if _, ok := e.Availability.(models.RawCounts); ok {
			booked[e.ID] = 0
		}
	}
	for _, rec := range records {
		if _, tracked := booked[rec.EventID]; tracked {
			booked[rec.EventID] += rec.Tickets
		}
	}
	return booked
}
