package scope

import (
	"image"
	"image/color"
	"testing"

	"github.com/itohio/usbscope/pkg/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	green = 0xff00ff00
	black = 0xff000000
)

func TestFrame_Render(t *testing.T) {
	h := sweep.NewHistory(4, 3)
	f := NewFrame(4, 3, green, black)

	// Unwritten columns sit on row 0
	f.Render(h)
	for x := range 4 {
		assert.Equal(t, uint32(green), f.At(x, 0))
		assert.Equal(t, uint32(black), f.At(x, 1))
		assert.Equal(t, uint32(black), f.At(x, 2))
	}
}

func TestFrame_RenderOnePixelPerColumn(t *testing.T) {
	h := sweep.NewHistory(8, 6)
	m := sweep.NewMapper(sweep.EverySample)
	m.FullScale = 6
	m.Map(h, readings(0, 1, 2, 3, 4, 5, 6, 3), 0, 1, false)

	f := NewFrame(8, 6, green, black)
	f.Render(h)

	for x := range 8 {
		count := 0
		for y := range 6 {
			if f.At(x, y) == green {
				count++
				assert.Equal(t, h.At(x), y)
			}
		}
		assert.Equal(t, 1, count, "column %d", x)
	}
}

func TestFrame_CopyTo(t *testing.T) {
	f := NewFrame(2, 2, 0xff112233, 0x80445566)
	f.Pix[1] = f.Trace

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	f.CopyTo(img)

	assert.Equal(t, color.RGBA{R: 0x44, G: 0x55, B: 0x66, A: 0x80}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 0x44, G: 0x55, B: 0x66, A: 0x80}, img.RGBAAt(1, 1))
}

func TestFrame_CopyToSmallerImage(t *testing.T) {
	f := NewFrame(4, 4, green, black)
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	require.NotPanics(t, func() { f.CopyTo(img) })
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(1, 1))
}

func TestNewFrame_ClampsSize(t *testing.T) {
	f := NewFrame(0, -1, green, black)
	assert.Equal(t, 1, f.Width)
	assert.Equal(t, 1, f.Height)
	assert.Equal(t, []uint32{black}, f.Pix)
}
