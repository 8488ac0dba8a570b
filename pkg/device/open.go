package device

import (
	"fmt"

	"github.com/itohio/usbscope/pkg/config"
)

// Open creates the device selected by cfg.Device.Transport.
func Open(cfg *config.Config) (Device, error) {
	switch cfg.Device.Transport {
	case config.TransportUSB, "":
		return OpenUSB(cfg.Device.VendorID, cfg.Device.ProductID)
	case config.TransportSerial:
		return OpenSerial(cfg.Device.SerialPort, cfg.Device.BaudRate)
	case config.TransportMock:
		return NewMock(&cfg.Mock), nil
	case config.TransportReplay:
		return OpenReplay(&cfg.Replay)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Device.Transport)
	}
}
