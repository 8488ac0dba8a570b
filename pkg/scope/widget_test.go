package scope

import (
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/meter"
	"github.com/itohio/usbscope/pkg/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivisionOffsets(t *testing.T) {
	assert.Equal(t, []float32{0, 25, 50, 75, 99}, divisionOffsets(100, 4))
	assert.Equal(t, []float32{0, 33, 67, 99}, divisionOffsets(100, 3))
	assert.Nil(t, divisionOffsets(100, 0))
}

func TestTimePerDivision(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, timePerDivision(100*time.Millisecond, 10))
	assert.Equal(t, time.Second, timePerDivision(time.Second, 0))
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "1000 S/s", statusLine(State{}, 1, 1000))
	assert.Equal(t, "20 S/s  4/px  AVG  PAUSED", statusLine(State{Average: true, Paused: true}, 4, 20.4))
}

func TestScopeWidget_Renderer(t *testing.T) {
	test.NewApp()

	cfg := config.Default()
	cfg.Display.Width = 40
	cfg.Display.Height = 20
	cfg.Sweep.TimePerScreen = 100 * time.Millisecond

	sw := NewWidget(cfg)
	w := test.NewWindow(sw)
	defer w.Close()
	w.Resize(sw.MinSize())

	sw.SetStatus(State{TimePerScreen: 100 * time.Millisecond, Paused: true}, sweep.Step{Pixels: 3, ReadingsPerPixel: 2})
	sw.SetRate(meter.Snapshot{Readings: 5000, Period: time.Second})

	r := test.WidgetRenderer(sw).(*scopeRenderer)
	r.Refresh()
	assert.Equal(t, "T/div 10ms", r.timeLabel.Text)
	assert.True(t, strings.HasPrefix(r.voltLabel.Text, "V/div 0.41"), r.voltLabel.Text)
	assert.Equal(t, "5000 S/s  2/px  PAUSED", r.statusText.Text)

	assert.Len(t, r.vLines, cfg.Display.Divisions+1)
	assert.Len(t, r.hLines, verticalDivisions+1)

	var images int
	for _, o := range r.Objects() {
		if _, ok := o.(*canvas.Image); ok {
			images++
		}
	}
	require.Equal(t, 1, images)
	assert.Equal(t, canvas.ImageScalePixels, r.image.ScaleMode)
}

func TestScopeWidget_SetFrame(t *testing.T) {
	test.NewApp()

	cfg := config.Default()
	cfg.Display.Width = 4
	cfg.Display.Height = 2
	sw := NewWidget(cfg)

	f := NewFrame(4, 2, 0xff0000ff, 0xff000000)
	f.Pix[5] = f.Trace
	sw.SetFrame(f)

	c := sw.img.RGBAAt(1, 1)
	assert.Equal(t, uint8(0xff), c.B)
	assert.Equal(t, uint8(0x00), sw.img.RGBAAt(0, 0).B)
}
