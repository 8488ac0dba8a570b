package meter

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Monitor resets a RateCounter every period, logs the result and notifies
// registered callbacks.
type Monitor struct {
	counter *RateCounter
	period  time.Duration
	log     logrus.FieldLogger

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

// NewMonitor creates a monitor for counter. A non-positive period defaults to one second.
func NewMonitor(counter *RateCounter, period time.Duration, log logrus.FieldLogger) *Monitor {
	if period <= 0 {
		period = time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Monitor{
		counter: counter,
		period:  period,
		log:     log,
	}
}

// OnUpdate registers a callback invoked with each period's snapshot.
// The callback runs on the monitor goroutine and should return quickly.
func (m *Monitor) OnUpdate(callback func(Snapshot)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Run reports until ctx is cancelled and returns ctx.Err().
// No callbacks are invoked after Run returns.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	m.counter.Reset(time.Now())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.report(m.counter.Reset(now))
		}
	}
}

func (m *Monitor) report(snap Snapshot) {
	m.log.WithFields(logrus.Fields{
		"readings_per_second": int64(snap.Rate()),
		"reads":               snap.Reads,
		"errors":              snap.Errors,
		"latency_p50":         snap.LatencyP50,
		"latency_p99":         snap.LatencyP99,
		"latency_max":         snap.LatencyMax,
	}).Info("Acquisition rate")

	m.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snap)
		}
	}
}
