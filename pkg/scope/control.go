package scope

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Key identifies a control key.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyP
	KeyA
	KeyEscape
)

// Action is the kind of input event.
type Action int

const (
	// Held is reported on every poll while the key is down.
	Held Action = iota
	// Pressed is reported once per key press.
	Pressed
	// Closed reports that the window was closed.
	Closed
)

// Event is one input event reported by a Surface.
type Event struct {
	Key    Key
	Action Action
}

// Controls maps input events to State changes.
type Controls struct {
	Step time.Duration // TimePerScreen change per tick while Up or Down is held
	Min  time.Duration // Lower bound of TimePerScreen
	Log  logrus.FieldLogger
}

// Handle applies the events polled in one tick to s and reports whether the
// user asked to exit. Up wins over Down when both are held. Pause and Average
// toggle at most once per tick regardless of how many presses were polled.
func (c Controls) Handle(s *State, events []Event) bool {
	var up, down, pause, average, exit bool

	for _, e := range events {
		if e.Action == Closed {
			exit = true
			continue
		}

		switch e.Key {
		case KeyUp:
			up = true
		case KeyDown:
			down = true
		case KeyP:
			pause = pause || e.Action == Pressed
		case KeyA:
			average = average || e.Action == Pressed
		case KeyEscape:
			exit = true
		}
	}

	switch {
	case up:
		s.TimePerScreen += c.Step
		c.logTimePerScreen(s)
	case down:
		s.TimePerScreen = max(c.Min, s.TimePerScreen-c.Step)
		c.logTimePerScreen(s)
	}

	if pause {
		s.Paused = !s.Paused
		c.log().WithField("paused", s.Paused).Info("Pause toggled")
	}
	if average {
		s.Average = !s.Average
		c.log().WithField("average", s.Average).Info("Averaging toggled")
	}

	return exit
}

func (c Controls) logTimePerScreen(s *State) {
	c.log().WithField("time_per_screen", s.TimePerScreen.Microseconds()).Info("Time per screen changed (us)")
}

func (c Controls) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
