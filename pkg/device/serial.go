package device

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is the standard CDC-ACM baud rate.
	DefaultBaudRate = 115200
	// SerialEndpoint is the pseudo endpoint a serial stream is read from.
	SerialEndpoint uint8 = 0x81
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// serialPort is the part of serial.Port used for streaming.
type serialPort interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// Serial streams big-endian sample pairs from a serial port.
// Reads always return an even number of bytes; an odd trailing byte is
// carried into the next read.
type Serial struct {
	name string
	port serialPort

	readMu   sync.Mutex // Serializes reads and guards the carry
	carry    byte
	hasCarry bool

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens the named serial port.
func OpenSerial(name string, baudRate int) (*Serial, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	return newSerial(name, port), nil
}

func newSerial(name string, port serialPort) *Serial {
	return &Serial{name: name, port: port}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Name
		if d.IsUSB {
			desc = fmt.Sprintf("%s (USB %s:%s %s)", d.Name, d.VID, d.PID, d.Product)
		}
		result = append(result, Port{
			Name:        d.Name,
			Description: desc,
		})
	}

	return result, nil
}

// ReadBulk reads available bytes from the port. The context deadline is used
// as the port read timeout.
func (s *Serial) ReadBulk(ctx context.Context, endpoint uint8, buf []byte) (int, error) {
	if endpoint != SerialEndpoint {
		return 0, fmt.Errorf("%w: 0x%02x", ErrNoEndpoint, endpoint)
	}
	if len(buf) < 2 {
		return 0, fmt.Errorf("buffer too small: %d bytes", len(buf))
	}

	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.isClosed() {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	timeout := serial.NoTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return 0, context.DeadlineExceeded
		}
	}
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return 0, fmt.Errorf("failed to set read timeout on %s: %w", s.name, err)
	}

	offset := 0
	if s.hasCarry {
		buf[0] = s.carry
		offset = 1
	}

	n, err := s.port.Read(buf[offset:])
	if err != nil {
		if s.isClosed() {
			return 0, ErrClosed
		}
		return 0, fmt.Errorf("failed to read from %s: %w", s.name, err)
	}
	if n == 0 {
		// Timed out with nothing new
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, context.DeadlineExceeded
	}

	n += offset
	s.hasCarry = n%2 == 1
	if s.hasCarry {
		n--
		s.carry = buf[n]
	}

	return n, nil
}

// Endpoints returns the single pseudo endpoint of the stream.
func (s *Serial) Endpoints() []uint8 {
	return []uint8{SerialEndpoint}
}

func (s *Serial) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close closes the serial port, unblocking a pending read.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", s.name, err)
	}
	return nil
}
