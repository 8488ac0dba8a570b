package device

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

func writeWav(t *testing.T, rate uint32, bits uint16, values []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	samples := make([]wav.Sample, len(values))
	for i, v := range values {
		samples[i].Values[0] = v
	}

	writer := wav.NewWriter(f, uint32(len(samples)), 1, rate, bits)
	require.NoError(t, writer.WriteSamples(samples))

	return path
}

func TestPCMToReading(t *testing.T) {
	tests := []struct {
		v, bits int
		want    sample.Reading
	}{
		{v: -32768, bits: 16, want: 0},
		{v: 0, bits: 16, want: 2048},
		{v: 32767, bits: 16, want: 4095},
		{v: 0, bits: 8, want: 0},
		{v: 128, bits: 8, want: 2048},
		{v: 255, bits: 8, want: 4080},
		{v: 0, bits: 24, want: 2048},
		{v: -2048, bits: 12, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pcmToReading(tt.v, tt.bits), "v=%d bits=%d", tt.v, tt.bits)
	}
}

func TestOpenReplay(t *testing.T) {
	path := writeWav(t, 100000, 16, []int{-32768, 0, 32767, 0})

	r, err := OpenReplay(&config.ReplayConfig{Path: path, Endpoint: 0x83})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []sample.Reading{0, 2048, 4095, 2048}, r.readings)
	assert.Equal(t, 10*time.Microsecond, r.pace.interval)
	assert.Equal(t, []uint8{0x83}, r.Endpoints())
}

func TestOpenReplay_Errors(t *testing.T) {
	_, err := OpenReplay(&config.ReplayConfig{})
	assert.Error(t, err)

	_, err = OpenReplay(&config.ReplayConfig{Path: filepath.Join(t.TempDir(), "missing.wav")})
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav file"), 0644))
	_, err = OpenReplay(&config.ReplayConfig{Path: garbage})
	assert.Error(t, err)
}

func TestReplay_ReadBulkLoops(t *testing.T) {
	readings := []sample.Reading{1, 2, 3}
	r := newReplay(&config.ReplayConfig{Endpoint: 0x83, Loop: true}, readings, time.Microsecond)
	defer r.Close()

	time.Sleep(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []sample.Reading
	buf := make([]byte, 4)
	for len(got) < 7 {
		n, err := r.ReadBulk(ctx, 0x83, buf)
		require.NoError(t, err)
		got = sample.AppendDecoded(got, buf[:n])
	}

	assert.Equal(t, []sample.Reading{1, 2, 3, 1, 2, 3, 1}, got[:7])
}

func TestReplay_ExhaustedWithoutLoopTimesOut(t *testing.T) {
	r := newReplay(&config.ReplayConfig{Endpoint: 0x83}, []sample.Reading{7}, time.Microsecond)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	buf := make([]byte, 64)
	n, err := r.ReadBulk(ctx, 0x83, buf)
	require.NoError(t, err)
	assert.Equal(t, []sample.Reading{7}, sample.Decode(buf, n))

	_, err = r.ReadBulk(ctx, 0x83, buf)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplay_WrongEndpointAndClose(t *testing.T) {
	r := newReplay(&config.ReplayConfig{Endpoint: 0x83}, []sample.Reading{7}, time.Microsecond)

	_, err := r.ReadBulk(context.Background(), 0x81, make([]byte, 64))
	assert.ErrorIs(t, err, ErrNoEndpoint)

	require.NoError(t, r.Close())
	_, err = r.ReadBulk(context.Background(), 0x83, make([]byte, 64))
	assert.ErrorIs(t, err, ErrClosed)
}
