package device

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"
)

// USB is a libusb backed device claimed through its default interface.
type USB struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	done func()

	mu     sync.Mutex
	in     map[uint8]*gousb.InEndpoint
	closed bool
}

// USBInfo describes an enumerated USB device.
type USBInfo struct {
	Bus     int
	Address int
	Vendor  uint16
	Product uint16
	Speed   string
}

func (i USBInfo) String() string {
	return fmt.Sprintf("bus %03d device %03d: ID %04x:%04x (%s)", i.Bus, i.Address, i.Vendor, i.Product, i.Speed)
}

// OpenUSB opens the first device matching vid:pid and claims its default interface.
// Returns ErrNotFound when no device matches.
func OpenUSB(vid, pid uint16) (*USB, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open device %04x:%04x: %w", vid, pid, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: %04x:%04x", ErrNotFound, vid, pid)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		logrus.WithError(err).Debug("Kernel driver auto detach unavailable")
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim interface of %04x:%04x: %w", vid, pid, err)
	}

	return &USB{
		ctx:  ctx,
		dev:  dev,
		intf: intf,
		done: done,
		in:   make(map[uint8]*gousb.InEndpoint),
	}, nil
}

// ListUSB enumerates attached USB devices without opening them.
func ListUSB() ([]USBInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var result []USBInfo
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		result = append(result, USBInfo{
			Bus:     desc.Bus,
			Address: desc.Address,
			Vendor:  uint16(desc.Vendor),
			Product: uint16(desc.Product),
			Speed:   desc.Speed.String(),
		})
		return false
	})
	if err != nil {
		return result, fmt.Errorf("failed to list USB devices: %w", err)
	}

	return result, nil
}

// ReadBulk reads one bulk transfer from the IN endpoint with the given address.
func (u *USB) ReadBulk(ctx context.Context, endpoint uint8, buf []byte) (int, error) {
	ep, err := u.endpoint(endpoint)
	if err != nil {
		return 0, err
	}

	n, err := ep.ReadContext(ctx, buf)
	if err != nil {
		return n, fmt.Errorf("bulk read from 0x%02x: %w", endpoint, err)
	}
	return n, nil
}

// Endpoints returns the bulk IN endpoint addresses of the claimed interface.
func (u *USB) Endpoints() []uint8 {
	return bulkInEndpoints(u.intf.Setting)
}

// Close releases the interface and closes the device.
func (u *USB) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true

	u.done()
	var firstErr error
	if err := u.dev.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close device: %w", err)
	}
	if err := u.ctx.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close USB context: %w", err)
	}

	return firstErr
}

// endpoint opens the IN endpoint for addr once and caches it.
func (u *USB) endpoint(addr uint8) (*gousb.InEndpoint, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil, ErrClosed
	}
	if ep, ok := u.in[addr]; ok {
		return ep, nil
	}

	desc, ok := u.intf.Setting.Endpoints[gousb.EndpointAddress(addr)]
	if !ok || desc.Direction != gousb.EndpointDirectionIn {
		return nil, fmt.Errorf("%w: 0x%02x", ErrNoEndpoint, addr)
	}

	ep, err := u.intf.InEndpoint(desc.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to open endpoint 0x%02x: %w", addr, err)
	}
	u.in[addr] = ep

	return ep, nil
}

// bulkInEndpoints returns the bulk IN addresses of setting in ascending order.
func bulkInEndpoints(setting gousb.InterfaceSetting) []uint8 {
	var result []uint8
	for addr, desc := range setting.Endpoints {
		if desc.Direction == gousb.EndpointDirectionIn && desc.TransferType == gousb.TransferTypeBulk {
			result = append(result, uint8(addr))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
