// Package sweeper periodically reclaims expired rate-limit windows and
// verification tokens.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/metrics"
	"github.com/robfig/cron/v3"
)

const (
	DefaultWindowSpec = "@every 1m"
	DefaultTokenSpec  = "@every 1h"
)

// WindowStore is satisfied by *ratelimit.MemoryStore.
type WindowStore interface {
	Sweep(now time.Time) int
}

// TokenStore is satisfied by the verification token repository.
type TokenStore interface {
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

type Sweeper struct {
	windows WindowStore // nil when rate limiting is backed by Redis
	tokens  TokenStore
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
}

func New(windows WindowStore, tokens TokenStore, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		windows: windows,
		tokens:  tokens,
		logger:  logger.With("component", "sweeper"),
		now:     time.Now,
		timeout: 30 * time.Second,
	}
}

// Start schedules both sweeps and blocks until ctx is cancelled, then waits
// for a running sweep to finish.
func (s *Sweeper) Start(ctx context.Context, windowSpec, tokenSpec string) error {
	c := cron.New()

	if s.windows != nil {
		if _, err := c.AddFunc(windowSpec, s.SweepWindows); err != nil {
			return fmt.Errorf("schedule window sweep: %w", err)
		}
	}
	if _, err := c.AddFunc(tokenSpec, func() { s.SweepTokens(ctx) }); err != nil {
		return fmt.Errorf("schedule token sweep: %w", err)
	}

	s.logger.Info("sweeper started", "window_spec", windowSpec, "token_spec", tokenSpec, "memory_windows", s.windows != nil)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweeper stopped")
	return nil
}

// SweepWindows drops elapsed in-process rate-limit windows.
func (s *Sweeper) SweepWindows() {
	if s.windows == nil {
		return
	}
	n := s.windows.Sweep(s.now())
	metrics.SweeperReclaimedTotal.WithLabelValues("ratelimit_windows").Add(float64(n))
	if n > 0 {
		s.logger.Debug("reclaimed rate limit windows", "count", n)
	}
}

// SweepTokens deletes verification tokens that expired before now.
func (s *Sweeper) SweepTokens(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("delete expired verification tokens", "error", err)
		return
	}
	metrics.SweeperReclaimedTotal.WithLabelValues("verification_tokens").Add(float64(n))
	if n > 0 {
		s.logger.Info("deleted expired verification tokens", "count", n)
	}
}
