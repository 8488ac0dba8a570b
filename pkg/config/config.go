package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in DeviceConfig.Transport.
const (
	TransportUSB    = "usb"
	TransportSerial = "serial"
	TransportMock   = "mock"
	TransportReplay = "replay"
)

// Probe strategies accepted in DeviceConfig.Probe.
const (
	ProbeScan       = "scan"
	ProbeDescriptor = "descriptor"
	ProbeFixed      = "fixed"
)

// Sweep policies accepted in SweepConfig.Policy.
const (
	PolicyClamp       = "clamp"
	PolicyEverySample = "every_sample"
)

// Config represents the application configuration.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Display     DisplayConfig     `yaml:"display"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Mock        MockConfig        `yaml:"mock"`
	Replay      ReplayConfig      `yaml:"replay"`
	Log         LogConfig         `yaml:"log"`
}

// DeviceConfig selects the acquisition device and how its data endpoint is found.
type DeviceConfig struct {
	Transport  string `yaml:"transport"`
	VendorID   uint16 `yaml:"vendor_id"`
	ProductID  uint16 `yaml:"product_id"`
	Probe      string `yaml:"probe"`
	Endpoint   uint8  `yaml:"endpoint"` // Used only with probe: fixed
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
}

// AcquisitionConfig contains bulk read parameters.
type AcquisitionConfig struct {
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	BufferSize   int           `yaml:"buffer_size"` // Bytes per bulk read
	RetryDelay   time.Duration `yaml:"retry_delay"`
	RatePeriod   time.Duration `yaml:"rate_period"`
}

// DisplayConfig contains window and colour settings.
type DisplayConfig struct {
	Title           string        `yaml:"title"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	Scale           int           `yaml:"scale"`
	FrameInterval   time.Duration `yaml:"frame_interval"`
	TraceColor      uint32        `yaml:"trace_color"`      // 0xAARRGGBB
	BackgroundColor uint32        `yaml:"background_color"` // 0xAARRGGBB
	Divisions       int           `yaml:"divisions"`
}

// SweepConfig controls the horizontal time base.
type SweepConfig struct {
	TimePerScreen time.Duration `yaml:"time_per_screen"`
	Step          time.Duration `yaml:"step"`
	Min           time.Duration `yaml:"min"`
	Policy        string        `yaml:"policy"`
	Average       bool          `yaml:"average"`
}

// CalibrationConfig describes the linear ADC count to volts transform.
type CalibrationConfig struct {
	VRef      float64 `yaml:"vref"`
	R1        float64 `yaml:"r1"` // Voltage divider, zero means no divider
	R2        float64 `yaml:"r2"`
	FullScale float64 `yaml:"full_scale"`
}

// MockConfig contains simulated device configuration.
type MockConfig struct {
	Waveform   string        `yaml:"waveform"`    // sine, square or triangle
	Frequency  float64       `yaml:"frequency"`   // Hz
	Amplitude  float64       `yaml:"amplitude"`   // ADC counts
	Offset     float64       `yaml:"offset"`      // ADC counts
	NoiseLevel float64       `yaml:"noise_level"` // ADC counts
	SampleRate time.Duration `yaml:"sample_rate"` // Interval between samples
	Endpoint   uint8         `yaml:"endpoint"`
}

// ReplayConfig contains WAV replay device configuration.
type ReplayConfig struct {
	Path     string `yaml:"path"`
	Endpoint uint8  `yaml:"endpoint"`
	Loop     bool   `yaml:"loop"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport:  TransportUSB,
			VendorID:   0x16c0,
			ProductID:  0x27dd,
			Probe:      ProbeScan,
			SerialPort: "/dev/ttyACM0",
			BaudRate:   115200,
		},
		Acquisition: AcquisitionConfig{
			ReadTimeout:  5 * time.Second,
			ProbeTimeout: 200 * time.Millisecond,
			BufferSize:   64,
			RetryDelay:   100 * time.Millisecond,
			RatePeriod:   time.Second,
		},
		Display: DisplayConfig{
			Title:           "Oscilloscope Client",
			Width:           800,
			Height:          500,
			Scale:           2,
			FrameInterval:   16 * time.Millisecond, // ~60 FPS
			TraceColor:      0xff00ff00,
			BackgroundColor: 0xff000000,
			Divisions:       10,
		},
		Sweep: SweepConfig{
			TimePerScreen: 100 * time.Millisecond,
			Step:          100 * time.Microsecond,
			Min:           100 * time.Microsecond,
			Policy:        PolicyClamp,
			Average:       false,
		},
		Calibration: CalibrationConfig{
			VRef:      3.3,
			FullScale: 4096,
		},
		Mock: MockConfig{
			Waveform:   "sine",
			Frequency:  50,
			Amplitude:  1500,
			Offset:     2048,
			NoiseLevel: 20,
			SampleRate: 100 * time.Microsecond, // 10 kHz
			Endpoint:   0x82,
		},
		Replay: ReplayConfig{
			Endpoint: 0x83,
			Loop:     true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks enumerated fields and sweep bounds.
func (c *Config) Validate() error {
	switch c.Device.Transport {
	case TransportUSB, TransportSerial, TransportMock, TransportReplay:
	default:
		return fmt.Errorf("unknown transport %q", c.Device.Transport)
	}

	switch c.Device.Probe {
	case ProbeScan, ProbeDescriptor, ProbeFixed:
	default:
		return fmt.Errorf("unknown probe strategy %q", c.Device.Probe)
	}

	switch c.Sweep.Policy {
	case PolicyClamp, PolicyEverySample:
	default:
		return fmt.Errorf("unknown sweep policy %q", c.Sweep.Policy)
	}

	if c.Sweep.Min <= 0 {
		return fmt.Errorf("sweep minimum must be positive, got %v", c.Sweep.Min)
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Device.Transport == "" {
		c.Device.Transport = def.Device.Transport
	}
	if c.Device.VendorID == 0 {
		c.Device.VendorID = def.Device.VendorID
	}
	if c.Device.ProductID == 0 {
		c.Device.ProductID = def.Device.ProductID
	}
	if c.Device.Probe == "" {
		c.Device.Probe = def.Device.Probe
	}
	if c.Device.SerialPort == "" {
		c.Device.SerialPort = def.Device.SerialPort
	}
	if c.Device.BaudRate == 0 {
		c.Device.BaudRate = def.Device.BaudRate
	}

	if c.Acquisition.ReadTimeout == 0 {
		c.Acquisition.ReadTimeout = def.Acquisition.ReadTimeout
	}
	if c.Acquisition.ProbeTimeout == 0 {
		c.Acquisition.ProbeTimeout = def.Acquisition.ProbeTimeout
	}
	if c.Acquisition.BufferSize == 0 {
		c.Acquisition.BufferSize = def.Acquisition.BufferSize
	}
	if c.Acquisition.RetryDelay == 0 {
		c.Acquisition.RetryDelay = def.Acquisition.RetryDelay
	}
	if c.Acquisition.RatePeriod == 0 {
		c.Acquisition.RatePeriod = def.Acquisition.RatePeriod
	}

	if c.Display.Title == "" {
		c.Display.Title = def.Display.Title
	}
	if c.Display.Width == 0 {
		c.Display.Width = def.Display.Width
	}
	if c.Display.Height == 0 {
		c.Display.Height = def.Display.Height
	}
	if c.Display.Scale == 0 {
		c.Display.Scale = def.Display.Scale
	}
	if c.Display.FrameInterval == 0 {
		c.Display.FrameInterval = def.Display.FrameInterval
	}
	if c.Display.TraceColor == 0 {
		c.Display.TraceColor = def.Display.TraceColor
	}
	if c.Display.Divisions == 0 {
		c.Display.Divisions = def.Display.Divisions
	}

	if c.Sweep.TimePerScreen == 0 {
		c.Sweep.TimePerScreen = def.Sweep.TimePerScreen
	}
	if c.Sweep.Step == 0 {
		c.Sweep.Step = def.Sweep.Step
	}
	if c.Sweep.Min == 0 {
		c.Sweep.Min = def.Sweep.Min
	}
	if c.Sweep.Policy == "" {
		c.Sweep.Policy = def.Sweep.Policy
	}

	if c.Calibration.VRef == 0 {
		c.Calibration.VRef = def.Calibration.VRef
	}
	if c.Calibration.FullScale == 0 {
		c.Calibration.FullScale = def.Calibration.FullScale
	}

	if c.Mock.Waveform == "" {
		c.Mock.Waveform = def.Mock.Waveform
	}
	if c.Mock.Frequency == 0 {
		c.Mock.Frequency = def.Mock.Frequency
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Endpoint == 0 {
		c.Mock.Endpoint = def.Mock.Endpoint
	}

	if c.Replay.Endpoint == 0 {
		c.Replay.Endpoint = def.Replay.Endpoint
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// ParseTimePerScreen converts the positional duration value and unit into a
// time per screen. Units are s, ms and us.
func ParseTimePerScreen(value, unit string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("must give duration")
	}
	if unit == "" {
		return 0, fmt.Errorf("must give unit")
	}

	num, err := strconv.ParseUint(value, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("wrong format for duration %q: %w", value, err)
	}

	var base time.Duration
	switch unit {
	case "s":
		base = time.Second
	case "ms":
		base = time.Millisecond
	case "us":
		base = time.Microsecond
	default:
		return 0, fmt.Errorf("unsupported unit %q (want s, ms or us)", unit)
	}

	if num > uint64(1<<63-1)/uint64(base) {
		return 0, fmt.Errorf("duration %s%s overflows", value, unit)
	}

	d := time.Duration(num) * base
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s%s", value, unit)
	}

	return d, nil
}
