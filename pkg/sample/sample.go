package sample

import (
	"encoding/binary"

	"github.com/itohio/usbscope/pkg/config"
)

// Reading is a raw ADC count decoded from the device stream.
// The device ADC is 12-bit, so meaningful values are 0-4095; larger values
// are passed through and only clamp when scaled to the screen.
type Reading uint16

// DefaultFullScale is the number of ADC codes of the 12-bit converter.
const DefaultFullScale = 4096

// Decode converts the first n bytes of buf into readings. Each reading is a
// big-endian byte pair; a trailing odd byte is discarded.
func Decode(buf []byte, n int) []Reading {
	if n > len(buf) {
		n = len(buf)
	}
	if n < 2 {
		return []Reading{}
	}
	return AppendDecoded(make([]Reading, 0, n/2), buf[:n])
}

// AppendDecoded decodes buf as big-endian pairs and appends the readings to dst.
func AppendDecoded(dst []Reading, buf []byte) []Reading {
	for i := 0; i+1 < len(buf); i += 2 {
		dst = append(dst, Reading(binary.BigEndian.Uint16(buf[i:])))
	}
	return dst
}

// Encode is the inverse of Decode. Simulated devices use it to produce
// the wire format.
func Encode(dst []byte, readings []Reading) []byte {
	for _, r := range readings {
		dst = binary.BigEndian.AppendUint16(dst, uint16(r))
	}
	return dst
}

// Calibration is the linear transform from ADC counts to input volts.
type Calibration struct {
	VRef      float64
	R1        float64
	R2        float64
	FullScale float64
}

// NewCalibration creates a Calibration from configuration.
func NewCalibration(cfg config.CalibrationConfig) Calibration {
	c := Calibration{
		VRef:      cfg.VRef,
		R1:        cfg.R1,
		R2:        cfg.R2,
		FullScale: cfg.FullScale,
	}
	if c.FullScale <= 0 {
		c.FullScale = DefaultFullScale
	}
	return c
}

// Voltage converts an ADC value (possibly averaged) to the voltage at the
// divider input.
func (c Calibration) Voltage(v float64) float64 {
	return voltageDivider(adcToVoltage(v, c.VRef, c.FullScale), c.R1, c.R2)
}

// Span returns the voltage corresponding to the full ADC range.
func (c Calibration) Span() float64 {
	return c.Voltage(c.FullScale)
}

// adcToVoltage converts an ADC reading to the voltage at the ADC pin.
func adcToVoltage(adc, vref, fullScale float64) float64 {
	return (adc / fullScale) * vref
}

// voltageDivider calculates the input voltage from the measured output voltage.
// Formula: V_in = V_out * ((R1 + R2) / R2). A zero R2 means no divider.
func voltageDivider(vout float64, r1, r2 float64) float64 {
	if r2 <= 0 {
		return vout
	}
	return vout * ((r1 + r2) / r2)
}
