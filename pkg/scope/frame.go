package scope

import (
	"image"

	"github.com/itohio/usbscope/pkg/sweep"
)

// Frame is a Width x Height pixel buffer in 0xAARRGGBB order, row major.
type Frame struct {
	Width      int
	Height     int
	Pix        []uint32
	Trace      uint32
	Background uint32
}

// NewFrame allocates a frame filled with the background colour.
func NewFrame(width, height int, trace, background uint32) *Frame {
	width = max(width, 1)
	height = max(height, 1)
	f := &Frame{
		Width:      width,
		Height:     height,
		Pix:        make([]uint32, width*height),
		Trace:      trace,
		Background: background,
	}
	f.fill()
	return f
}

// At returns the colour of pixel (x, y).
func (f *Frame) At(x, y int) uint32 {
	return f.Pix[y*f.Width+x]
}

// Render draws one trace pixel per column at the row stored in h.
// Columns beyond the frame or rows outside it are left as background.
func (f *Frame) Render(h *sweep.History) {
	f.fill()

	cols := h.Columns()
	for x := 0; x < f.Width && x < len(cols); x++ {
		y := cols[x]
		if y < 0 || y >= f.Height {
			continue
		}
		f.Pix[y*f.Width+x] = f.Trace
	}
}

// CopyTo converts the frame into img, which must be at least Width x Height.
func (f *Frame) CopyTo(img *image.RGBA) {
	b := img.Bounds()
	w := min(f.Width, b.Dx())
	h := min(f.Height, b.Dy())

	for y := 0; y < h; y++ {
		src := f.Pix[y*f.Width : y*f.Width+w]
		dst := img.Pix[y*img.Stride : y*img.Stride+4*w]
		for x, c := range src {
			dst[4*x+0] = uint8(c >> 16)
			dst[4*x+1] = uint8(c >> 8)
			dst[4*x+2] = uint8(c)
			dst[4*x+3] = uint8(c >> 24)
		}
	}
}

func (f *Frame) fill() {
	for i := range f.Pix {
		f.Pix[i] = f.Background
	}
}
