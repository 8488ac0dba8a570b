// Package meter tracks acquisition throughput and reports it periodically.
package meter

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// maxLatencyMicros bounds the recorded read latency.
const maxLatencyMicros = int64(time.Minute / time.Microsecond)

// Snapshot is the content of a RateCounter for one reporting period.
type Snapshot struct {
	Readings int64         // Readings decoded
	Reads    int64         // Successful bulk reads
	Errors   int64         // Failed or timed out reads
	Period   time.Duration // Time covered by the snapshot

	LatencyP50 time.Duration
	LatencyP99 time.Duration
	LatencyMax time.Duration
}

// Rate returns readings per second over the period.
func (s Snapshot) Rate() float64 {
	if s.Period <= 0 {
		return 0
	}
	return float64(s.Readings) / s.Period.Seconds()
}

// RateCounter accumulates readings and read statistics between resets.
// It is safe for concurrent use.
type RateCounter struct {
	mu       sync.Mutex
	readings int64
	reads    int64
	errors   int64
	latency  *hdrhistogram.Histogram
	since    time.Time
}

// NewRateCounter creates a counter whose first period starts now.
func NewRateCounter() *RateCounter {
	return &RateCounter{
		latency: hdrhistogram.New(1, maxLatencyMicros, 3),
		since:   time.Now(),
	}
}

// Add records a successful read of n readings that took latency.
func (c *RateCounter) Add(n int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.readings += int64(n)
	c.reads++
	c.recordLatency(latency)
}

// AddError records a failed read.
func (c *RateCounter) AddError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors++
}

// Readings returns the readings counted since the last reset.
func (c *RateCounter) Readings() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.readings
}

// Reset returns the current counts and starts a new period at now.
func (c *RateCounter) Reset(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Readings: c.readings,
		Reads:    c.reads,
		Errors:   c.errors,
		Period:   now.Sub(c.since),
	}
	if c.latency.TotalCount() > 0 {
		snap.LatencyP50 = micros(c.latency.ValueAtQuantile(50))
		snap.LatencyP99 = micros(c.latency.ValueAtQuantile(99))
		snap.LatencyMax = micros(c.latency.Max())
	}

	c.readings = 0
	c.reads = 0
	c.errors = 0
	c.latency.Reset()
	c.since = now

	return snap
}

// recordLatency clamps d into the histogram range. Caller holds c.mu.
func (c *RateCounter) recordLatency(d time.Duration) {
	us := min(max(d.Microseconds(), 1), maxLatencyMicros)
	// In range by construction
	_ = c.latency.RecordValue(us)
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
