package scope

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

// verticalDivisions is the number of voltage divisions.
const verticalDivisions = 8

var (
	gridColor  = color.NRGBA{R: 80, G: 80, B: 80, A: 160}
	labelColor = color.NRGBA{R: 180, G: 180, B: 180, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	background *canvas.Rectangle
	image      *canvas.Image

	// Grid lines
	vLines []*canvas.Line
	hLines []*canvas.Line

	timeLabel  *canvas.Text
	voltLabel  *canvas.Text
	statusText *canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject
}

// MinSize returns the frame size at scale 1.
func (r *scopeRenderer) MinSize() fyne.Size {
	d := r.scope.cfg.Display
	return fyne.NewSize(float32(d.Width), float32(d.Height))
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.image.Resize(size)

	for i, x := range divisionOffsets(size.Width, len(r.vLines)-1) {
		r.vLines[i].Position1 = fyne.NewPos(x, 0)
		r.vLines[i].Position2 = fyne.NewPos(x, size.Height)
	}
	for i, y := range divisionOffsets(size.Height, len(r.hLines)-1) {
		r.hLines[i].Position1 = fyne.NewPos(0, y)
		r.hLines[i].Position2 = fyne.NewPos(size.Width, y)
	}

	const pad = 4
	textHeight := r.statusText.MinSize().Height
	r.statusText.Move(fyne.NewPos(pad, pad))
	r.timeLabel.Move(fyne.NewPos(pad, size.Height-textHeight-pad))
	r.voltLabel.Resize(fyne.NewSize(size.Width/2, textHeight))
	r.voltLabel.Move(fyne.NewPos(size.Width/2-pad, size.Height-textHeight-pad))
}

// Refresh updates the labels and redraws the frame image.
func (r *scopeRenderer) Refresh() {
	s := r.scope
	s.mu.RLock()
	state := s.state
	step := s.step
	rate := s.rate
	s.mu.RUnlock()

	divisions := len(r.vLines) - 1
	r.timeLabel.Text = "T/div " + timePerDivision(state.TimePerScreen, divisions).String()
	r.voltLabel.Text = fmt.Sprintf("V/div %.3gV", s.cal.Span()/verticalDivisions)
	r.statusText.Text = statusLine(state, step.ReadingsPerPixel, rate.Rate())

	r.image.Refresh()
	r.timeLabel.Refresh()
	r.voltLabel.Refresh()
	r.statusText.Refresh()
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func newGridLine() *canvas.Line {
	line := canvas.NewLine(gridColor)
	line.StrokeWidth = 1
	return line
}

func newLabel(align fyne.TextAlign) *canvas.Text {
	text := canvas.NewText("", labelColor)
	text.TextSize = 11
	text.Alignment = align
	text.TextStyle = fyne.TextStyle{Monospace: true}
	return text
}

// divisionOffsets returns n+1 pixel aligned offsets splitting length into n
// equal divisions, both edges included.
func divisionOffsets(length float32, n int) []float32 {
	if n <= 0 {
		return nil
	}
	result := make([]float32, n+1)
	for i := range result {
		result[i] = math32.Min(math32.Round(length*float32(i)/float32(n)), math32.Max(length-1, 0))
	}
	return result
}

func timePerDivision(timePerScreen time.Duration, divisions int) time.Duration {
	if divisions <= 0 {
		return timePerScreen
	}
	return timePerScreen / time.Duration(divisions)
}

func statusLine(state State, readingsPerPixel int, rate float64) string {
	parts := []string{fmt.Sprintf("%.0f S/s", rate)}
	if readingsPerPixel > 1 {
		parts = append(parts, fmt.Sprintf("%d/px", readingsPerPixel))
	}
	if state.Average {
		parts = append(parts, "AVG")
	}
	if state.Paused {
		parts = append(parts, "PAUSED")
	}
	return strings.Join(parts, "  ")
}
