package portfolio

import (
	"context"
	"time"
)

// Pacer suspends for a constant interval between successive address
// fetches, however long the previous fetch took. A zero interval disables
// pacing.
type Pacer struct {
	interval time.Duration
	started  bool
}

// NewPacer returns a Pacer that waits interval between fetches.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks for the interval or until ctx is done. The first call only
// reports ctx's state.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}
	if !p.started {
		p.started = true
		return ctx.Err()
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
