package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, TransportUSB, cfg.Device.Transport)
	assert.Equal(t, uint16(0x16c0), cfg.Device.VendorID)
	assert.Equal(t, uint16(0x27dd), cfg.Device.ProductID)
	assert.Equal(t, ProbeScan, cfg.Device.Probe)
	assert.Equal(t, 5*time.Second, cfg.Acquisition.ReadTimeout)
	assert.Equal(t, 64, cfg.Acquisition.BufferSize)
	assert.Equal(t, time.Second, cfg.Acquisition.RatePeriod)
	assert.Equal(t, 800, cfg.Display.Width)
	assert.Equal(t, 500, cfg.Display.Height)
	assert.Equal(t, 2, cfg.Display.Scale)
	assert.Equal(t, "Oscilloscope Client", cfg.Display.Title)
	assert.Equal(t, 100*time.Microsecond, cfg.Sweep.Step)
	assert.Equal(t, 100*time.Microsecond, cfg.Sweep.Min)
	assert.Equal(t, PolicyClamp, cfg.Sweep.Policy)
	assert.Equal(t, float64(4096), cfg.Calibration.FullScale)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, TransportUSB, cfg.Device.Transport)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
device:
  transport: serial
  vendor_id: 0x1234
  product_id: 0xabcd
  probe: fixed
  endpoint: 0x81
  serial_port: "/dev/ttyUSB1"

acquisition:
  read_timeout: 2s
  buffer_size: 512

display:
  width: 400
  height: 300
  trace_color: 0xffff0000

sweep:
  time_per_screen: 10ms
  step: 1ms
  policy: every_sample
  average: true

calibration:
  vref: 5.0
  r1: 10000
  r2: 10000
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, TransportSerial, cfg.Device.Transport)
	assert.Equal(t, uint16(0x1234), cfg.Device.VendorID)
	assert.Equal(t, uint16(0xabcd), cfg.Device.ProductID)
	assert.Equal(t, ProbeFixed, cfg.Device.Probe)
	assert.Equal(t, uint8(0x81), cfg.Device.Endpoint)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Device.SerialPort)
	assert.Equal(t, 2*time.Second, cfg.Acquisition.ReadTimeout)
	assert.Equal(t, 512, cfg.Acquisition.BufferSize)
	assert.Equal(t, 400, cfg.Display.Width)
	assert.Equal(t, 300, cfg.Display.Height)
	assert.Equal(t, uint32(0xffff0000), cfg.Display.TraceColor)
	assert.Equal(t, 10*time.Millisecond, cfg.Sweep.TimePerScreen)
	assert.Equal(t, time.Millisecond, cfg.Sweep.Step)
	assert.Equal(t, PolicyEverySample, cfg.Sweep.Policy)
	assert.True(t, cfg.Sweep.Average)
	assert.Equal(t, 5.0, cfg.Calibration.VRef)
	assert.Equal(t, float64(10000), cfg.Calibration.R1)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_UnknownEnumValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"transport", "device:\n  transport: bluetooth\n"},
		{"probe", "device:\n  probe: guess\n"},
		{"policy", "sweep:\n  policy: sometimes\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
			require.NoError(t, err)
			defer os.Remove(tmpfile.Name())

			_, err = tmpfile.WriteString(tt.yaml)
			require.NoError(t, err)
			require.NoError(t, tmpfile.Close())

			cfg, err := Load(tmpfile.Name())
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
device:
  transport: mock
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, TransportMock, cfg.Device.Transport)
	assert.Equal(t, 800, cfg.Display.Width)                          // default
	assert.Equal(t, 100*time.Microsecond, cfg.Mock.SampleRate)        // default
	assert.Equal(t, uint32(0xff000000), cfg.Display.BackgroundColor) // default
}

func TestLoad_ExplicitZerosUseDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("acquisition:\n  buffer_size: 0\nsweep:\n  min: 0s\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Acquisition.BufferSize)
	assert.Equal(t, 100*time.Microsecond, cfg.Sweep.Min)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Device.Transport = TransportReplay
	cfg.Replay.Path = "capture.wav"
	cfg.Sweep.TimePerScreen = 250 * time.Millisecond

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, TransportReplay, loaded.Device.Transport)
	assert.Equal(t, "capture.wav", loaded.Replay.Path)
	assert.Equal(t, 250*time.Millisecond, loaded.Sweep.TimePerScreen)
}

func TestParseTimePerScreen(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		unit    string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", value: "2", unit: "s", want: 2 * time.Second},
		{name: "milliseconds", value: "1", unit: "ms", want: time.Millisecond},
		{name: "microseconds", value: "500", unit: "us", want: 500 * time.Microsecond},
		{name: "missing value", value: "", unit: "ms", wantErr: true},
		{name: "missing unit", value: "10", unit: "", wantErr: true},
		{name: "unknown unit", value: "10", unit: "ns", wantErr: true},
		{name: "not a number", value: "ten", unit: "ms", wantErr: true},
		{name: "negative", value: "-1", unit: "ms", wantErr: true},
		{name: "zero", value: "0", unit: "s", wantErr: true},
		{name: "overflow", value: "99999999999999", unit: "s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimePerScreen(tt.value, tt.unit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
