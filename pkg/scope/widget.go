package scope

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/meter"
	"github.com/itohio/usbscope/pkg/sample"
	"github.com/itohio/usbscope/pkg/sweep"
)

// ScopeWidget is a custom Fyne widget that shows rendered frames scaled to
// its size with a division grid and a status line on top.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config
	cal sample.Calibration

	// Data (protected by mu)
	mu    sync.RWMutex
	img   *image.RGBA
	state State
	step  sweep.Step
	rate  meter.Snapshot
}

// NewWidget creates a new ScopeWidget instance.
func NewWidget(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg: cfg,
		cal: sample.NewCalibration(cfg.Calibration),
		img: image.NewRGBA(image.Rect(0, 0, max(cfg.Display.Width, 1), max(cfg.Display.Height, 1))),
		state: State{
			Average:       cfg.Sweep.Average,
			TimePerScreen: cfg.Sweep.TimePerScreen,
		},
	}
	s.ExtendBaseWidget(s)
	return s
}

// SetFrame copies f into the widget image. Call on the Fyne main thread.
func (s *ScopeWidget) SetFrame(f *Frame) {
	s.mu.Lock()
	f.CopyTo(s.img)
	s.mu.Unlock()

	s.Refresh()
}

// SetStatus updates the state shown in the status line.
func (s *ScopeWidget) SetStatus(st State, step sweep.Step) {
	s.mu.Lock()
	s.state = st
	s.step = step
	s.mu.Unlock()
}

// SetRate updates the acquisition rate shown in the status line.
// Call on the Fyne main thread.
func (s *ScopeWidget) SetRate(snap meter.Snapshot) {
	s.mu.Lock()
	s.rate = snap
	s.mu.Unlock()

	s.Refresh()
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(argb(s.cfg.Display.BackgroundColor))

	img := canvas.NewImageFromImage(s.img)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels

	r := &scopeRenderer{
		scope:      s,
		background: background,
		image:      img,
		timeLabel:  newLabel(fyne.TextAlignLeading),
		voltLabel:  newLabel(fyne.TextAlignTrailing),
		statusText: newLabel(fyne.TextAlignLeading),
	}

	divisions := max(s.cfg.Display.Divisions, 1)
	for range divisions + 1 {
		r.vLines = append(r.vLines, newGridLine())
	}
	for range verticalDivisions + 1 {
		r.hLines = append(r.hLines, newGridLine())
	}

	r.objects = []fyne.CanvasObject{background, img}
	for _, l := range r.vLines {
		r.objects = append(r.objects, l)
	}
	for _, l := range r.hLines {
		r.objects = append(r.objects, l)
	}
	r.objects = append(r.objects, r.timeLabel, r.voltLabel, r.statusText)

	r.Refresh()
	return r
}

// argb converts a 0xAARRGGBB colour.
func argb(c uint32) color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
}
