// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary string, with an in-process store and a Redis-backed store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRule = errors.New("invalid rate limit rule")

// Rule is the budget applied to one key: at most Limit hits per Window.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	SignupRule = Rule{Name: "signup", Limit: 5, Window: 15 * time.Minute}
	LoginRule  = Rule{Name: "login", Limit: 5, Window: time.Minute}
	VerifyRule = Rule{Name: "verify", Limit: 10, Window: 5 * time.Minute}
)

// Result describes the decision for a single hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the number of whole seconds until the window resets.
func (r Result) RetryAfter(now time.Time) int {
	return SecondsUntil(r.ResetAt, now)
}

// Store holds the per-key window state. Implementations must make the
// read-modify-write of one key atomic: concurrent hits on the same key may
// never produce more than limit successes in one window.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

type Limiter struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock returns a copy of the limiter that reads time from now.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	return &Limiter{store: l.store, now: now}
}

// Allow records a hit for key under rule and reports whether it is within budget.
func (l *Limiter) Allow(ctx context.Context, rule Rule, key string) (Result, error) {
	if key == "" || rule.Limit <= 0 || rule.Window <= 0 {
		return Result{}, fmt.Errorf("%w: key=%q limit=%d window=%s", ErrInvalidRule, key, rule.Limit, rule.Window)
	}

	res, err := l.store.Hit(ctx, key, rule.Limit, rule.Window, l.now())
	if err != nil {
		return Result{}, fmt.Errorf("rate limit hit: %w", err)
	}
	return res, nil
}

// Now exposes the limiter clock so callers compute Retry-After consistently.
func (l *Limiter) Now() time.Time {
	return l.now()
}

// SecondsUntil returns ceil(t-now) in seconds, never negative.
func SecondsUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
