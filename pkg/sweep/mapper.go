package sweep

import (
	"fmt"
	"math"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/sample"
)

// Policy decides how many columns a tick advances relative to the readings
// available.
type Policy int

const (
	// ClampToReadings advances by elapsed time but never by more columns than
	// there are readings, and at least one.
	ClampToReadings Policy = iota
	// EverySample advances by at least one column per reading so that every
	// reading is eventually drawn.
	EverySample
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case ClampToReadings:
		return config.PolicyClamp
	case EverySample:
		return config.PolicyEverySample
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration policy name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case config.PolicyClamp, "":
		return ClampToReadings, nil
	case config.PolicyEverySample:
		return EverySample, nil
	default:
		return 0, fmt.Errorf("unknown sweep policy %q", name)
	}
}

// Step describes what one Map call did.
type Step struct {
	Pixels           int // Columns written
	ReadingsPerPixel int // Readings represented by each column
}

// Mapper converts batches of readings into column rows.
type Mapper struct {
	Policy    Policy
	FullScale float64 // ADC codes mapped to the full screen height

	values []float64 // Reused per tick
}

// NewMapper creates a Mapper with the 12-bit full scale.
func NewMapper(policy Policy) *Mapper {
	return &Mapper{
		Policy:    policy,
		FullScale: sample.DefaultFullScale,
	}
}

// PixelsToDraw returns the number of columns a tick advances for n readings
// after elapsed wall-clock time with the given time per screen.
// It returns 0 only when n is 0.
func PixelsToDraw(policy Policy, n int, elapsed, timePerScreen time.Duration, width int) int {
	if n <= 0 {
		return 0
	}

	estimate := 0
	if timePerScreen > 0 {
		f := math.Round(elapsed.Seconds() / timePerScreen.Seconds() * float64(width))
		if f > math.MaxInt32 {
			f = math.MaxInt32
		}
		if f > 0 {
			estimate = int(f)
		}
	}

	switch policy {
	case EverySample:
		return max(estimate, n, 1)
	default:
		return min(max(estimate, 1), n)
	}
}

// Row converts an ADC value to a screen row. Higher values draw nearer the top.
func Row(v, fullScale float64, height int) int {
	if fullScale <= 0 {
		fullScale = sample.DefaultFullScale
	}
	scaled := v / fullScale * float64(height)
	if scaled > float64(height) {
		scaled = float64(height)
	}
	if scaled < 0 {
		scaled = 0
	}
	y := height - int(scaled)
	return min(max(y, 0), height-1)
}

// Map writes the columns for one tick into h and advances its cursor.
// An empty batch leaves h untouched.
func (m *Mapper) Map(h *History, batch []sample.Reading, elapsed, timePerScreen time.Duration, average bool) Step {
	n := len(batch)
	if n == 0 {
		return Step{}
	}

	pixels := PixelsToDraw(m.Policy, n, elapsed, timePerScreen, h.Width())

	// Columns beyond one screen would be overwritten within this tick.
	keep := min(pixels, h.Width())
	m.values = sample.DownsampleLast(m.values, batch, pixels, keep, average)

	skip := pixels - keep
	for i, v := range m.values {
		h.write(skip+i, Row(v, m.FullScale, h.Height()))
	}
	h.advance(pixels)

	return Step{
		Pixels:           pixels,
		ReadingsPerPixel: sample.ReadingsPerColumn(n, pixels),
	}
}
