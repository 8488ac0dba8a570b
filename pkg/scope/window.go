package scope

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/itohio/usbscope/pkg/config"
	"github.com/itohio/usbscope/pkg/meter"
	"github.com/itohio/usbscope/pkg/sweep"
)

// Window is a Fyne window presenting frames through a ScopeWidget.
type Window struct {
	win    fyne.Window
	widget *ScopeWidget
	keys   *keyTracker
}

var (
	_ Surface       = (*Window)(nil)
	_ StatusSurface = (*Window)(nil)
)

// NewWindow creates the scope window sized Width*Scale x Height*Scale.
// The caller shows it and runs the app.
func NewWindow(app fyne.App, cfg *config.Config) *Window {
	win := app.NewWindow(cfg.Display.Title)
	sw := NewWidget(cfg)
	keys := newKeyTracker()

	scale := float32(max(cfg.Display.Scale, 1))
	win.SetContent(sw)
	win.Resize(fyne.NewSize(float32(cfg.Display.Width)*scale, float32(cfg.Display.Height)*scale))
	win.SetFixedSize(true)
	win.SetPadded(false)

	if dc, ok := win.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) { keys.down(keyFromName(e.Name)) })
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) { keys.up(keyFromName(e.Name)) })
	} else {
		win.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) { keys.tap(keyFromName(e.Name)) })
	}
	win.SetOnClosed(keys.close)

	return &Window{win: win, widget: sw, keys: keys}
}

// Fyne returns the underlying window.
func (w *Window) Fyne() fyne.Window { return w.win }

// Widget returns the scope widget shown in the window.
func (w *Window) Widget() *ScopeWidget { return w.widget }

// Present copies f into the window on the Fyne main thread and waits for it.
func (w *Window) Present(f *Frame) error {
	if !w.IsOpen() {
		return ErrWindowClosed
	}
	fyne.DoAndWait(func() {
		w.widget.SetFrame(f)
	})
	return nil
}

// ShowStatus updates the status line with the state of the last tick.
func (w *Window) ShowStatus(s State, step sweep.Step) {
	w.widget.SetStatus(s, step)
}

// ShowRate updates the rate in the status line. Safe to call from any goroutine.
func (w *Window) ShowRate(snap meter.Snapshot) {
	fyne.Do(func() {
		w.widget.SetRate(snap)
	})
}

// Poll returns the input events since the previous poll.
func (w *Window) Poll() []Event {
	return w.keys.poll()
}

// IsOpen reports whether the window has not been closed.
func (w *Window) IsOpen() bool {
	return !w.keys.isClosed()
}

// Close closes the window from any goroutine.
func (w *Window) Close() {
	fyne.Do(w.win.Close)
}

func keyFromName(name fyne.KeyName) Key {
	switch name {
	case fyne.KeyUp:
		return KeyUp
	case fyne.KeyDown:
		return KeyDown
	case fyne.KeyP:
		return KeyP
	case fyne.KeyA:
		return KeyA
	case fyne.KeyEscape:
		return KeyEscape
	default:
		return KeyNone
	}
}

// keyTracker turns key down/up notifications into held and pressed events.
type keyTracker struct {
	mu      sync.Mutex
	held    map[Key]bool
	pressed []Key
	closed  bool
}

func newKeyTracker() *keyTracker {
	return &keyTracker{held: make(map[Key]bool)}
}

func (k *keyTracker) down(key Key) {
	if key == KeyNone {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	// Auto repeat is not a new press
	if !k.held[key] {
		k.pressed = append(k.pressed, key)
	}
	k.held[key] = true
}

func (k *keyTracker) up(key Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, key)
}

// tap records a press without a held state, for canvases without key up events.
func (k *keyTracker) tap(key Key) {
	if key == KeyNone {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed = append(k.pressed, key)
}

func (k *keyTracker) close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
}

func (k *keyTracker) isClosed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

// poll returns held keys in Key order, then presses in arrival order.
func (k *keyTracker) poll() []Event {
	k.mu.Lock()
	defer k.mu.Unlock()

	var events []Event
	for key := KeyUp; key <= KeyEscape; key++ {
		if k.held[key] {
			events = append(events, Event{Key: key, Action: Held})
		}
	}
	for _, key := range k.pressed {
		events = append(events, Event{Key: key, Action: Pressed})
	}
	k.pressed = k.pressed[:0]

	if k.closed {
		events = append(events, Event{Action: Closed})
	}
	return events
}
