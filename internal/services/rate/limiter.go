package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter caps how many reports one reporter may submit per hour and per
// day. A zero limit disables that window.
type Limiter struct {
	store   WindowStore
	perHour int
	perDay  int
}

func NewLimiter(store WindowStore, perHour, perDay int) *Limiter {
	if perHour < 0 {
		perHour = 0
	}
	if perDay < 0 {
		perDay = 0
	}

	return &Limiter{
		store:   store,
		perHour: perHour,
		perDay:  perDay,
	}
}

// RetryAfter returns how long the reporter has to wait before starting a new
// report, or zero when a new report is allowed.
func (l *Limiter) RetryAfter(ctx context.Context, userID int64) (time.Duration, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l == nil || l.store == nil {
		return 0, nil
	}

	retryAfter := time.Duration(0)

	if l.perHour > 0 {
		count, ttl, err := l.store.WindowState(ctx, hourKey(userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perHour) {
			retryAfter = maxDuration(retryAfter, ttl)
		}
	}

	if l.perDay > 0 {
		count, ttl, err := l.store.WindowState(ctx, dayKey(userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perDay) {
			retryAfter = maxDuration(retryAfter, ttl)
		}
	}

	return retryAfter, nil
}

// Record counts one submitted report against every window.
func (l *Limiter) Record(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if l == nil || l.store == nil {
		return nil
	}

	if l.perHour > 0 {
		if _, _, err := l.store.IncrementWindow(ctx, hourKey(userID), hourWindow); err != nil {
			return err
		}
	}
	if l.perDay > 0 {
		if _, _, err := l.store.IncrementWindow(ctx, dayKey(userID), dayWindow); err != nil {
			return err
		}
	}
	return nil
}

func hourKey(userID int64) string {
	return "rate:reports:hour:" + strconv.FormatInt(userID, 10)
}

func dayKey(userID int64) string {
	return "rate:reports:day:" + strconv.FormatInt(userID, 10)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
