package ticker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refresher re-fetches the record list. It reports whether the result was applied.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Ticker drives periodic reconciliation of a Refresher and coalesces
// out-of-band refresh requests (live change notifications) into it.
type Ticker struct {
	target   Refresher
	interval time.Duration
	nudge    chan struct{}
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker. An interval <= 0 disables the periodic
// refresh; Nudge still works.
func NewTicker(target Refresher, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		target:   target,
		interval: interval,
		nudge:    make(chan struct{}, 1),
		logger:   logger.With().Str("component", "ticker").Logger(),
	}
}

// Nudge requests a refresh as soon as possible. Requests made while one is
// pending collapse into it.
func (t *Ticker) Nudge() {
	select {
	case t.nudge <- struct{}{}:
	default:
	}
}

// Start runs refreshes until ctx is done
func (t *Ticker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if t.interval > 0 {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case <-tick:
			t.refresh(ctx, "interval")

		case <-t.nudge:
			t.refresh(ctx, "nudge")
		}
	}
}

func (t *Ticker) refresh(ctx context.Context, reason string) {
	applied := t.target.Refresh(ctx)
	t.logger.Debug().
		Str("reason", reason).
		Bool("applied", applied).
		Msg("refreshed records")
}
