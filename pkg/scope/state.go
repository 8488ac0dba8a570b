// Package scope turns the column history into frames and drives the render
// loop against a presentation surface.
package scope

import "time"

// State is the render state changed by controls and the render tick.
type State struct {
	Paused        bool
	Average       bool
	TimePerScreen time.Duration
	LastDraw      time.Time
}
