// Package panel places lock-screen widget windows. Each manager owns one
// window surface and computes its geometry from the lock-screen context and
// sibling widget frames, so stacked widgets never overlap.
package panel

import (
	"sync"

	"github.com/notchly-app/notchly/internal/models"
)

// Kind names one lock-screen widget.
type Kind string

const (
	KindMusic    Kind = "music"
	KindWeather  Kind = "weather"
	KindTimer    Kind = "timer"
	KindReminder Kind = "reminder"
)

// Surface abstracts the borderless always-on-top OS window a manager owns.
type Surface interface {
	// SetFrame moves and resizes the window, optionally animated.
	SetFrame(frame models.Rect, animated bool)
	OrderFront()
	OrderOut()
	// Attach mounts the content view; Detach releases it.
	Attach()
	Detach()
	// ExcludeFromCapture opts the window out of screen-capture visibility.
	// Called once, the first time the window is wired up.
	ExcludeFromCapture()
}

// SurfaceFactory creates the window surface for a widget.
type SurfaceFactory func(kind Kind) Surface

// Board tracks the latest frame of every visible widget. Managers publish
// their frames here and get refreshed when a sibling moves, which keeps the
// vertical stack consistent without managers touching each other's windows.
type Board struct {
	mu      sync.Mutex
	frames  map[Kind]models.Rect
	refresh map[Kind]func(animated bool)
}

// NewBoard creates an empty frame board.
func NewBoard() *Board {
	return &Board{
		frames:  make(map[Kind]models.Rect),
		refresh: make(map[Kind]func(bool)),
	}
}

// Frame returns the last published frame for a widget, if it is visible.
func (b *Board) Frame(kind Kind) (models.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.frames[kind]
	return f, ok
}

// publish records a widget frame and refreshes siblings when it changed.
func (b *Board) publish(kind Kind, frame models.Rect) {
	b.mu.Lock()
	if b.frames[kind] == frame {
		b.mu.Unlock()
		return
	}
	b.frames[kind] = frame
	siblings := b.siblingRefreshersLocked(kind)
	b.mu.Unlock()

	for _, fn := range siblings {
		fn(true)
	}
}

// clear drops a widget frame and refreshes siblings that stacked against it.
func (b *Board) clear(kind Kind) {
	b.mu.Lock()
	if _, ok := b.frames[kind]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.frames, kind)
	siblings := b.siblingRefreshersLocked(kind)
	b.mu.Unlock()

	for _, fn := range siblings {
		fn(true)
	}
}

func (b *Board) siblingRefreshersLocked(except Kind) []func(bool) {
	out := make([]func(bool), 0, len(b.refresh))
	for kind, fn := range b.refresh {
		if kind != except {
			out = append(out, fn)
		}
	}
	return out
}

func (b *Board) register(kind Kind, fn func(animated bool)) {
	b.mu.Lock()
	b.refresh[kind] = fn
	b.mu.Unlock()
}
