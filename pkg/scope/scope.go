package scope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/sample"
	"github.com/itohio/usbscope/pkg/sweep"
	"github.com/sirupsen/logrus"
)

// ErrWindowClosed is returned when presenting to a closed surface.
var ErrWindowClosed = errors.New("window closed")

// Surface is where frames are shown and input comes from.
type Surface interface {
	Present(f *Frame) error
	Poll() []Event
	IsOpen() bool
}

// StatusSurface is implemented by surfaces that display the render state
// next to the frame.
type StatusSurface interface {
	ShowStatus(s State, step sweep.Step)
}

// Scope owns the render side of the pipeline: it drains the queue, maps the
// batch into the column history and renders the frame once per tick.
type Scope struct {
	State    State
	Controls Controls
	History  *sweep.History
	Mapper   *sweep.Mapper
	Frame    *Frame
	Queue    *sample.Queue
	Log      logrus.FieldLogger

	batch []sample.Reading
	step  sweep.Step
}

// New creates a Scope for cfg reading from queue.
func New(cfg *config.Config, queue *sample.Queue, log logrus.FieldLogger) (*Scope, error) {
	policy, err := sweep.ParsePolicy(cfg.Sweep.Policy)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	mapper := sweep.NewMapper(policy)
	if cfg.Calibration.FullScale > 0 {
		mapper.FullScale = cfg.Calibration.FullScale
	}

	return &Scope{
		State: State{
			Average:       cfg.Sweep.Average,
			TimePerScreen: cfg.Sweep.TimePerScreen,
			LastDraw:      time.Now(),
		},
		Controls: Controls{
			Step: cfg.Sweep.Step,
			Min:  cfg.Sweep.Min,
			Log:  log,
		},
		History: sweep.NewHistory(cfg.Display.Width, cfg.Display.Height),
		Mapper:  mapper,
		Frame:   NewFrame(cfg.Display.Width, cfg.Display.Height, cfg.Display.TraceColor, cfg.Display.BackgroundColor),
		Queue:   queue,
		Log:     log,
	}, nil
}

// Tick drains the queue and advances the sweep by the time elapsed since the
// previous tick. The history keeps advancing while paused; only the frame is
// left as it was.
func (s *Scope) Tick(now time.Time) sweep.Step {
	s.batch = s.Queue.Drain(s.batch)

	elapsed := now.Sub(s.State.LastDraw)
	s.step = s.Mapper.Map(s.History, s.batch, elapsed, s.State.TimePerScreen, s.State.Average)

	if !s.State.Paused {
		s.Frame.Render(s.History)
	}
	s.State.LastDraw = now

	return s.step
}

// Run ticks s every interval and presents each frame to surf until the user
// exits, the surface closes or ctx is done. A nil return means the user exited.
func Run(ctx context.Context, s *Scope, surf Surface, interval time.Duration) error {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	status, _ := surf.(StatusSurface)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if !surf.IsOpen() {
				return nil
			}

			step := s.Tick(now)
			if err := surf.Present(s.Frame); err != nil {
				if errors.Is(err, ErrWindowClosed) {
					return nil
				}
				return fmt.Errorf("failed to present frame: %w", err)
			}
			if status != nil {
				status.ShowStatus(s.State, step)
			}

			if s.Controls.Handle(&s.State, surf.Poll()) {
				s.Log.Info("Exit requested")
				return nil
			}
		}
	}
}
