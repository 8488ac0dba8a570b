package acquire

import (
	"context"
	"sync"

	"github.com/itohio/usbscope/pkg/device"
)

// fakeDevice answers reads on its live endpoints with scripted payloads.
// Reads on other endpoints fail immediately.
type fakeDevice struct {
	mu       sync.Mutex
	live     map[uint8]bool
	payloads [][]byte // Returned in order on live endpoints, then reads block
	errs     []error  // Returned before payloads
	probed   []uint8
	listed   []uint8
}

func (d *fakeDevice) ReadBulk(ctx context.Context, endpoint uint8, buf []byte) (int, error) {
	d.mu.Lock()
	d.probed = append(d.probed, endpoint)
	if !d.live[endpoint] {
		d.mu.Unlock()
		return 0, device.ErrNoEndpoint
	}
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		d.mu.Unlock()
		return 0, err
	}
	if len(d.payloads) > 0 {
		n := copy(buf, d.payloads[0])
		d.payloads = d.payloads[1:]
		d.mu.Unlock()
		return n, nil
	}
	d.mu.Unlock()

	<-ctx.Done()
	return 0, ctx.Err()
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) probes() []uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint8(nil), d.probed...)
}

// listingDevice adds descriptor listing to fakeDevice.
type listingDevice struct {
	*fakeDevice
}

func (d listingDevice) Endpoints() []uint8 { return d.listed }
