// Package acquire finds the streaming endpoint of a device and keeps the
// sample queue fed from it.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/device"
	"github.com/sirupsen/logrus"
)

// ErrNoEndpoint is returned when no endpoint answers a probe read.
var ErrNoEndpoint = errors.New("no streaming endpoint found")

// Prober locates the bulk IN endpoint a device streams samples on.
type Prober struct {
	Strategy   string        // config.ProbeScan, config.ProbeDescriptor or config.ProbeFixed
	Endpoint   uint8         // Used by the fixed strategy
	Timeout    time.Duration // Per probe read
	BufferSize int
	Log        logrus.FieldLogger
}

// NewProber creates a prober from the device and acquisition settings.
func NewProber(cfg *config.Config, log logrus.FieldLogger) *Prober {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Prober{
		Strategy:   cfg.Device.Probe,
		Endpoint:   cfg.Device.Endpoint,
		Timeout:    cfg.Acquisition.ProbeTimeout,
		BufferSize: cfg.Acquisition.BufferSize,
		Log:        log,
	}
}

// Find returns the endpoint address to stream from.
func (p *Prober) Find(ctx context.Context, dev device.Device) (uint8, error) {
	switch p.Strategy {
	case config.ProbeFixed:
		p.Log.WithField("endpoint", hex(p.Endpoint)).Info("Using configured endpoint")
		return p.Endpoint, nil
	case config.ProbeDescriptor:
		lister, ok := dev.(device.EndpointLister)
		if !ok {
			p.Log.Warn("Device does not report endpoints, falling back to scan")
			return p.scan(ctx, dev)
		}
		return p.verify(ctx, dev, lister.Endpoints())
	default:
		return p.scan(ctx, dev)
	}
}

// scan probes every address in ascending order and picks the first that reads.
func (p *Prober) scan(ctx context.Context, dev device.Device) (uint8, error) {
	p.Log.Warn("Scanning endpoints; probe reads consume data and may desynchronize a streaming device")

	addrs := make([]uint8, 0, 256)
	for addr := 0; addr <= 255; addr++ {
		addrs = append(addrs, uint8(addr))
	}
	return p.verify(ctx, dev, addrs)
}

// verify returns the first address in addrs that completes a read without error.
func (p *Prober) verify(ctx context.Context, dev device.Device, addrs []uint8) (uint8, error) {
	buf := make([]byte, max(p.BufferSize, 2))

	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := p.probe(ctx, dev, addr, buf)
		if err != nil {
			p.Log.WithError(err).WithField("endpoint", hex(addr)).Debug("Probe failed")
			continue
		}

		p.Log.WithFields(logrus.Fields{
			"endpoint": hex(addr),
			"bytes":    n,
		}).Info("Found data endpoint")
		return addr, nil
	}

	return 0, ErrNoEndpoint
}

func (p *Prober) probe(ctx context.Context, dev device.Device, addr uint8, buf []byte) (int, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return dev.ReadBulk(probeCtx, addr, buf)
}

func hex(addr uint8) string {
	return fmt.Sprintf("0x%02x", addr)
}
