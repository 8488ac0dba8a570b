// Package device provides the bulk transfer sources the scope reads from:
// a USB device, a serial port, a simulated signal and a WAV file replay.
package device

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no device matches the requested VID:PID.
	ErrNotFound = errors.New("device not found")
	// ErrNoEndpoint is returned when reading from an address the device does not stream on.
	ErrNoEndpoint = errors.New("no such endpoint")
	// ErrClosed is returned when reading from a closed device.
	ErrClosed = errors.New("device closed")
)

// Device defines the interface for acquisition devices (real or mocked).
// ReadBulk blocks until data arrives, the context is done or the transfer fails.
// The read timeout is the context deadline.
type Device interface {
	ReadBulk(ctx context.Context, endpoint uint8, buf []byte) (int, error)
	Close() error
}

// EndpointLister is implemented by devices that can report their bulk IN
// endpoint addresses without probing.
type EndpointLister interface {
	Endpoints() []uint8
}

var (
	_ Device         = (*USB)(nil)
	_ Device         = (*Serial)(nil)
	_ Device         = (*Mock)(nil)
	_ Device         = (*Replay)(nil)
	_ EndpointLister = (*USB)(nil)
	_ EndpointLister = (*Serial)(nil)
	_ EndpointLister = (*Mock)(nil)
	_ EndpointLister = (*Replay)(nil)
)
