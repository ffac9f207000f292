package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sleeper holds the caller for a simulated duration: door actions, boarding,
// travel between floors and trace pacing all go through one.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Real sleeps on the wall clock.
type Real struct{}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer stopTimer(t)

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		slog.Debug("Sleep cancelled", "remaining", d)
		return ctx.Err()
	}
}

// Instant returns immediately and records what it was asked to sleep.
type Instant struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (i *Instant) Sleep(ctx context.Context, d time.Duration) error {
	i.mu.Lock()
	i.slept = append(i.slept, d)
	i.mu.Unlock()
	return ctx.Err()
}

func (i *Instant) Slept() []time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]time.Duration(nil), i.slept...)
}

// Stops the timer and drains it.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
