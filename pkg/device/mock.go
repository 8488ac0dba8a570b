package device

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/sample"
)

// Waveforms the mock can generate.
const (
	WaveSine     = "sine"
	WaveSquare   = "square"
	WaveTriangle = "triangle"
)

// Mock simulates a streaming ADC for testing and development.
// Readings are produced at cfg.SampleRate intervals regardless of how often
// ReadBulk is called.
type Mock struct {
	cfg *config.MockConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	pace     *pacer
	rng      *rand.Rand
	readings []sample.Reading
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		pace:   newPacer(time.Now(), cfg.SampleRate),
		rng:    rand.New(rand.NewPCG(uint64(cfg.Endpoint), 0x27dd)),
	}
}

// ReadBulk blocks until at least one reading is due and returns as many due
// readings as fit in buf.
func (m *Mock) ReadBulk(ctx context.Context, endpoint uint8, buf []byte) (int, error) {
	if endpoint != m.cfg.Endpoint {
		return 0, fmt.Errorf("%w: 0x%02x", ErrNoEndpoint, endpoint)
	}
	if len(buf) < 2 {
		return 0, fmt.Errorf("buffer too small: %d bytes", len(buf))
	}

	for {
		if m.ctx.Err() != nil {
			return 0, ErrClosed
		}

		m.mu.Lock()
		now := time.Now()
		if due := m.pace.due(now); due > 0 {
			n := m.generate(min(int(due), len(buf)/2))
			out := sample.Encode(buf[:0], m.readings[:n])
			m.mu.Unlock()
			return len(out), nil
		}
		wait := m.pace.next(now)
		m.mu.Unlock()

		if err := sleep(ctx, m.ctx, wait); err != nil {
			return 0, err
		}
	}
}

// Endpoints returns the configured pseudo endpoint.
func (m *Mock) Endpoints() []uint8 {
	return []uint8{m.cfg.Endpoint}
}

// Close stops the mocked device. Pending reads return ErrClosed.
func (m *Mock) Close() error {
	m.cancel()
	return nil
}

// generate produces the next n readings into m.readings. Caller holds m.mu.
func (m *Mock) generate(n int) int {
	if cap(m.readings) < n {
		m.readings = make([]sample.Reading, n)
	}
	m.readings = m.readings[:n]

	for i := range m.readings {
		t := float64(m.pace.taken) * m.pace.interval.Seconds()
		v := m.cfg.Offset + m.cfg.Amplitude*wave(m.cfg.Waveform, m.cfg.Frequency*t)
		if m.cfg.NoiseLevel > 0 {
			v += m.rng.NormFloat64() * m.cfg.NoiseLevel
		}
		m.readings[i] = toReading(v)
		m.pace.take(1)
	}

	return n
}

// wave evaluates a unit amplitude waveform at the given number of cycles.
func wave(kind string, cycles float64) float64 {
	_, phase := math.Modf(cycles)
	if phase < 0 {
		phase++
	}

	switch kind {
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		// Rises from -1 at phase 0 to 1 at phase 0.5
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// toReading clamps v to the 12-bit ADC range.
func toReading(v float64) sample.Reading {
	if v < 0 {
		return 0
	}
	if v > sample.DefaultFullScale-1 {
		return sample.DefaultFullScale - 1
	}
	return sample.Reading(v)
}
