package lock

import (
	"context"
	"fmt"
	"time"

	"ayat-booking/internal/logger"

	"github.com/go-redis/redis/v8"
)

// SubmitLock marks a booking form as having a submission in flight so a
// second submit of the same form is refused until the first finishes.
type SubmitLock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewSubmitLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *SubmitLock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SubmitLock{Client: client, TTL: ttl, Logger: log}
}

func key(formID string) string {
	return "submit_lock:" + formID
}

// Acquire returns false when the form already has a submission in flight.
func (l *SubmitLock) Acquire(ctx context.Context, formID, owner string) (bool, error) {
	ok, err := l.Client.SetNX(ctx, key(formID), owner, l.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		l.Logger.Warn("BOOKING", fmt.Sprintf("Submission already in flight for form %s", formID))
	}
	return ok, nil
}

// Release drops the lock if owner still holds it.
func (l *SubmitLock) Release(ctx context.Context, formID, owner string) error {
	val, err := l.Client.Get(ctx, key(formID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val != owner {
		return nil
	}
	return l.Client.Del(ctx, key(formID)).Err()
}

// InFlight reports whether formID is currently locked.
func (l *SubmitLock) InFlight(ctx context.Context, formID string) (bool, error) {
	_, err := l.Client.Get(ctx, key(formID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
