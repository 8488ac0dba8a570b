package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/integrii/flaggy"
	"github.com/itohio/usbscope/pkg/config"
	"github.com/sirupsen/logrus"
)

const (
	AppName = "usbscope"
	AppDesc = "Real time sweep oscilloscope for USB ADC streams"
)

var version = "unknown"

// options holds everything given on the command line.
type options struct {
	ConfigPath string
	Transport  string
	Port       string
	Wav        string
	Policy     string
	Probe      string
	Average    bool

	ListDevices bool
	ListPorts   bool

	Duration string
	Unit     string
}

func newParser(opts *options) *flaggy.Parser {
	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version
	parser.AdditionalHelpAppend = "\nExample: usbscope 10 ms"

	parser.String(&opts.ConfigPath, "c", "config", "configuration file path")
	parser.String(&opts.Transport, "", "transport", "device transport (usb, serial, mock, replay)")
	parser.String(&opts.Port, "", "port", "serial port name (implies serial transport)")
	parser.String(&opts.Wav, "", "wav", "WAV file to replay (implies replay transport)")
	parser.Bool(&opts.Average, "a", "average", "average readings within a column")
	parser.String(&opts.Policy, "", "policy", "sweep policy (clamp, every_sample)")
	parser.String(&opts.Probe, "", "probe", "endpoint probe strategy (scan, descriptor, fixed)")
	parser.Bool(&opts.ListDevices, "", "list-devices", "list connected USB devices and exit")
	parser.Bool(&opts.ListPorts, "", "list-ports", "list serial ports and exit")

	parser.AddPositionalValue(&opts.Duration, "duration", 1, false, "time per screen")
	parser.AddPositionalValue(&opts.Unit, "unit", 2, false, "time unit (s, ms, us)")

	return parser
}

func parseFlags(args []string) (*options, error) {
	opts := &options{ConfigPath: "usbscope.yaml"}
	parser := newParser(opts)
	if err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// apply copies command line overrides onto cfg and sets the time per screen
// from the positional arguments.
func (o *options) apply(cfg *config.Config) error {
	if o.Transport != "" {
		cfg.Device.Transport = o.Transport
	}
	if o.Port != "" {
		cfg.Device.SerialPort = o.Port
		if o.Transport == "" {
			cfg.Device.Transport = config.TransportSerial
		}
	}
	if o.Wav != "" {
		cfg.Replay.Path = o.Wav
		if o.Transport == "" {
			cfg.Device.Transport = config.TransportReplay
		}
	}
	if o.Policy != "" {
		cfg.Sweep.Policy = o.Policy
	}
	if o.Probe != "" {
		cfg.Device.Probe = o.Probe
	}
	if o.Average {
		cfg.Sweep.Average = true
	}

	tps, err := config.ParseTimePerScreen(o.Duration, o.Unit)
	if err != nil {
		return err
	}
	cfg.Sweep.TimePerScreen = tps

	return cfg.Validate()
}

func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return log, nil
}
