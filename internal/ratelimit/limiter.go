package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store persists request timestamps per identifier.
type Store interface {
	// Take drops attempts at or before now-window, then records an attempt at
	// now if fewer than limit remain. The whole step is atomic per identifier.
	Take(ctx context.Context, identifier string, limit int, window time.Duration, now time.Time) (Window, error)
}

// Window describes an identifier's window as Take left it.
type Window struct {
	// Recorded reports whether the attempt was admitted and stored.
	Recorded bool
	// Count is the number of attempts in the window before this one.
	Count int
	// Oldest is the earliest attempt still in the window, including this one.
	Oldest    time.Time
	HasOldest bool
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Limiter enforces at most limit requests per identifier within a sliding window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewLimiter creates a Limiter backed by store.
func NewLimiter(store Store, limit int, window time.Duration) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("rate limit store cannot be nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}

	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}, nil
}

// WithClock replaces the limiter's clock. Used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Limit returns the configured request limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// Allow records a request for identifier unless the window is already full.
// Rejected requests are not recorded, so a client that keeps retrying does
// not extend its own lockout.
func (l *Limiter) Allow(ctx context.Context, identifier string) (Result, error) {
	now := l.now()

	window, err := l.store.Take(ctx, identifier, l.limit, l.window, now)
	if err != nil {
		return Result{}, fmt.Errorf("take attempt: %w", err)
	}

	result := Result{
		Allowed: window.Recorded,
		Limit:   l.limit,
		Reset:   now.Add(l.window),
	}
	if window.HasOldest {
		result.Reset = window.Oldest.Add(l.window)
	}

	if !window.Recorded {
		result.RetryAfter = max(result.Reset.Sub(now), 0)
		return result, nil
	}

	result.Remaining = max(l.limit-window.Count-1, 0)
	return result, nil
}
