package acquire

import (
	"context"
	"errors"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/device"
	"github.com/itohio/usbscope/pkg/meter"
	"github.com/itohio/usbscope/pkg/sample"
	"github.com/sirupsen/logrus"
)

// Loop reads bulk transfers from one endpoint forever, feeding decoded
// readings into a Queue and counting them in a RateCounter.
type Loop struct {
	Device   device.Device
	Endpoint uint8
	Queue    *sample.Queue
	Counter  *meter.RateCounter

	ReadTimeout time.Duration
	RetryDelay  time.Duration
	BufferSize  int
	Log         logrus.FieldLogger
}

// NewLoop creates an acquisition loop with the given settings.
func NewLoop(dev device.Device, endpoint uint8, queue *sample.Queue, counter *meter.RateCounter, cfg config.AcquisitionConfig, log logrus.FieldLogger) *Loop {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loop{
		Device:      dev,
		Endpoint:    endpoint,
		Queue:       queue,
		Counter:     counter,
		ReadTimeout: cfg.ReadTimeout,
		RetryDelay:  cfg.RetryDelay,
		BufferSize:  cfg.BufferSize,
		Log:         log.WithField("endpoint", hex(endpoint)),
	}
}

// Run reads until ctx is cancelled and returns ctx.Err(). Read failures are
// logged, counted and retried. It also returns if the device is closed.
func (l *Loop) Run(ctx context.Context) error {
	buf := make([]byte, max(l.BufferSize, 2))
	readings := make([]sample.Reading, 0, len(buf)/2)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		n, err := l.read(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, device.ErrClosed) {
				return err
			}

			l.Counter.AddError()
			if errors.Is(err, context.DeadlineExceeded) {
				l.Log.WithError(err).Warn("Read timed out")
				continue
			}

			l.Log.WithError(err).Warn("Read failed, retrying")
			if err := wait(ctx, l.RetryDelay); err != nil {
				return err
			}
			continue
		}

		readings = sample.AppendDecoded(readings[:0], buf[:n])
		l.Queue.Append(readings)
		l.Counter.Add(len(readings), time.Since(start))
	}
}

func (l *Loop) read(ctx context.Context, buf []byte) (int, error) {
	timeout := l.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return l.Device.ReadBulk(readCtx, l.Endpoint, buf)
}

// wait sleeps for d unless ctx is done first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
