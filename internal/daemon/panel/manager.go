package panel

import (
	"log"
	"sync"

	"github.com/notchly-app/notchly/internal/models"
)

// Options configures one widget manager.
type Options[T comparable] struct {
	Kind    Kind
	Size    Size
	Surface SurfaceFactory
	Board   *Board
	// Gate reports whether lock-screen widgets may be visible right now.
	Gate func() bool
	// Context supplies the display hosting the lock screen.
	Context func() models.LockScreenContext
	// Offset supplies the user-configured vertical offset for this widget.
	Offset func() float64
	// Anchor resolves the stacking position against sibling frames.
	Anchor Anchor
	// Render hands the snapshot to the hosted content view.
	Render func(T)
}

// Manager owns one widget window and its placement lifecycle.
type Manager[T comparable] struct {
	mu sync.Mutex

	opts    Options[T]
	surface Surface
	wired   bool
	visible bool
	frame   models.Rect
	last    T
	hasLast bool
}

// NewManager creates a widget manager and registers it for sibling refreshes.
func NewManager[T comparable](opts Options[T]) *Manager[T] {
	m := &Manager[T]{opts: opts}
	opts.Board.register(opts.Kind, m.RefreshPosition)
	return m
}

// Visible reports whether the widget window is currently ordered front.
func (m *Manager[T]) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Show renders the snapshot, places the window, and orders it front. The
// window is created and wired on first use. Does nothing while the lock gate
// is closed or no usable screen exists.
func (m *Manager[T]) Show(snapshot T) {
	m.place(snapshot, true)
}

// Update re-renders and re-places an already visible window. A no-op when
// the widget is not currently shown.
func (m *Manager[T]) Update(snapshot T) {
	m.place(snapshot, false)
}

func (m *Manager[T]) place(snapshot T, create bool) {
	if m.opts.Gate != nil && !m.opts.Gate() {
		return
	}

	m.mu.Lock()
	if !create && !m.visible {
		m.mu.Unlock()
		return
	}
	if m.visible && m.hasLast && m.last == snapshot {
		m.mu.Unlock()
		return
	}

	screen := m.screenFrameLocked()
	if screen.IsZero() {
		m.mu.Unlock()
		log.Printf("[panel] %s: no usable screen, skipping render", m.opts.Kind)
		return
	}

	if m.surface == nil {
		m.surface = m.opts.Surface(m.opts.Kind)
	}
	if !m.wired {
		m.surface.ExcludeFromCapture()
		m.wired = true
	}

	m.last = snapshot
	m.hasLast = true
	wasVisible := m.visible
	m.visible = true

	frame := m.computeFrameLocked(screen)
	m.frame = frame
	surface := m.surface
	render := m.opts.Render
	m.mu.Unlock()

	if !wasVisible {
		surface.Attach()
	}
	if render != nil {
		render(snapshot)
	}
	surface.SetFrame(frame, wasVisible)
	if !wasVisible {
		surface.OrderFront()
	}

	m.opts.Board.publish(m.opts.Kind, frame)
}

// Hide orders the window out and detaches its content. The cached frame is
// cleared so siblings stop stacking against it.
func (m *Manager[T]) Hide() {
	m.mu.Lock()
	if !m.visible {
		m.mu.Unlock()
		return
	}
	m.visible = false
	m.hasLast = false
	m.frame = models.Rect{}
	surface := m.surface
	m.mu.Unlock()

	surface.OrderOut()
	surface.Detach()
	m.opts.Board.clear(m.opts.Kind)
}

// RefreshPosition recomputes geometry against current sibling frames and
// screen bounds. Invoked on screen-parameter changes, wake, and after a
// sibling widget's frame changes.
func (m *Manager[T]) RefreshPosition(animated bool) {
	m.mu.Lock()
	if !m.visible {
		m.mu.Unlock()
		return
	}
	screen := m.screenFrameLocked()
	if screen.IsZero() {
		m.mu.Unlock()
		return
	}
	frame := m.computeFrameLocked(screen)
	if frame == m.frame {
		m.mu.Unlock()
		return
	}
	m.frame = frame
	surface := m.surface
	m.mu.Unlock()

	surface.SetFrame(frame, animated)
	m.opts.Board.publish(m.opts.Kind, frame)
}

func (m *Manager[T]) screenFrameLocked() models.Rect {
	if m.opts.Context == nil {
		return models.Rect{}
	}
	return m.opts.Context().Frame
}

func (m *Manager[T]) computeFrameLocked(screen models.Rect) models.Rect {
	anchorY := m.opts.Anchor(m.opts.Board, screen, m.opts.Size)
	offset := 0.0
	if m.opts.Offset != nil {
		offset = m.opts.Offset()
	}
	return FrameFor(screen, m.opts.Size, anchorY, offset)
}
