package device

import (
	"context"
	"time"
)

// pacer releases samples at a fixed interval measured from its start.
// Sample k becomes available at start + k*interval.
type pacer struct {
	start    time.Time
	interval time.Duration
	taken    int64
}

func newPacer(start time.Time, interval time.Duration) *pacer {
	if interval <= 0 {
		interval = time.Microsecond
	}
	return &pacer{start: start, interval: interval}
}

// due returns the number of samples available at now and not yet taken.
func (p *pacer) due(now time.Time) int64 {
	elapsed := now.Sub(p.start)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed/p.interval) + 1 - p.taken
}

// take marks n samples as handed out.
func (p *pacer) take(n int64) {
	p.taken += n
}

// next returns how long until the next sample becomes available.
func (p *pacer) next(now time.Time) time.Duration {
	at := p.start.Add(time.Duration(p.taken) * p.interval)
	return max(at.Sub(now), 0)
}

// sleep waits for d or until either context is done.
// Returns ctx.Err() or ErrClosed respectively.
func sleep(ctx, closed context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-closed.Done():
		return ErrClosed
	case <-timer.C:
		return nil
	}
}
