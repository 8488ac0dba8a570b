package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/sample"
	"github.com/youpy/go-wav"
)

// Replay plays back the first channel of a PCM WAV file as 12-bit readings,
// paced at the file's sample rate.
type Replay struct {
	cfg *config.ReplayConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	pace     *pacer
	readings []sample.Reading
	pos      int
}

// OpenReplay loads the WAV file named in cfg.
func OpenReplay(cfg *config.ReplayConfig) (*Replay, error) {
	if cfg.Path == "" {
		return nil, errors.New("replay requires a WAV file path")
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	readings, rate, err := readWav(wav.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.Path, err)
	}

	return newReplay(cfg, readings, time.Second/time.Duration(rate)), nil
}

func newReplay(cfg *config.ReplayConfig, readings []sample.Reading, interval time.Duration) *Replay {
	ctx, cancel := context.WithCancel(context.Background())
	return &Replay{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		pace:     newPacer(time.Now(), interval),
		readings: readings,
	}
}

// readWav converts every frame's first channel to a reading.
func readWav(reader *wav.Reader) ([]sample.Reading, uint32, error) {
	format, err := reader.Format()
	if err != nil {
		return nil, 0, err
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		return nil, 0, fmt.Errorf("unsupported audio format %d", format.AudioFormat)
	}
	if format.BitsPerSample < 8 || format.BitsPerSample > 32 {
		return nil, 0, fmt.Errorf("unsupported bits per sample %d", format.BitsPerSample)
	}
	if format.SampleRate == 0 {
		return nil, 0, errors.New("zero sample rate")
	}

	var readings []sample.Reading
	for {
		samples, err := reader.ReadSamples(2048)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for _, s := range samples {
			readings = append(readings, pcmToReading(reader.IntValue(s, 0), int(format.BitsPerSample)))
		}
	}
	if len(readings) == 0 {
		return nil, 0, errors.New("no samples")
	}

	return readings, format.SampleRate, nil
}

// pcmToReading maps a PCM value to 12 bits. 8-bit PCM is unsigned, wider
// formats are signed and shifted to mid scale.
func pcmToReading(v, bits int) sample.Reading {
	if bits <= 8 {
		return sample.Reading(v&0xff) << 4
	}
	u := v + 1<<(bits-1)
	if bits < 12 {
		return sample.Reading(u << (12 - bits))
	}
	return sample.Reading(u >> (bits - 12))
}

// ReadBulk returns the readings due since the last read. When the file is
// exhausted and looping is off, it blocks until ctx is done.
func (r *Replay) ReadBulk(ctx context.Context, endpoint uint8, buf []byte) (int, error) {
	if endpoint != r.cfg.Endpoint {
		return 0, fmt.Errorf("%w: 0x%02x", ErrNoEndpoint, endpoint)
	}
	if len(buf) < 2 {
		return 0, fmt.Errorf("buffer too small: %d bytes", len(buf))
	}

	for {
		if r.ctx.Err() != nil {
			return 0, ErrClosed
		}

		r.mu.Lock()
		if r.pos >= len(r.readings) {
			if !r.cfg.Loop {
				r.mu.Unlock()
				if err := sleep(ctx, r.ctx, time.Duration(1<<62)); err != nil {
					return 0, err
				}
				continue
			}
			r.pos = 0
		}

		now := time.Now()
		if due := r.pace.due(now); due > 0 {
			n := min(int(due), len(buf)/2, len(r.readings)-r.pos)
			out := sample.Encode(buf[:0], r.readings[r.pos:r.pos+n])
			r.pos += n
			r.pace.take(int64(n))
			r.mu.Unlock()
			return len(out), nil
		}
		wait := r.pace.next(now)
		r.mu.Unlock()

		if err := sleep(ctx, r.ctx, wait); err != nil {
			return 0, err
		}
	}
}

// Endpoints returns the configured pseudo endpoint.
func (r *Replay) Endpoints() []uint8 {
	return []uint8{r.cfg.Endpoint}
}

// Close stops the replay. Pending reads return ErrClosed.
func (r *Replay) Close() error {
	r.cancel()
	return nil
}
