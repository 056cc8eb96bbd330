// Package lockstate holds the single source of truth for "is the screen
// locked" and sequences lock-screen widget visibility around it.
package lockstate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/notchly-app/notchly/internal/bus"
	"github.com/notchly-app/notchly/internal/daemon/notify"
	"github.com/notchly-app/notchly/internal/models"
)

// ChimeKind selects the lock or unlock sound.
type ChimeKind string

const (
	ChimeLock   ChimeKind = "lock"
	ChimeUnlock ChimeKind = "unlock"
)

// chimeThrottle is the minimum gap between repeats of one chime type.
const chimeThrottle = 250 * time.Millisecond

// unlockCollapseDelay defers the live-activity collapse after unlock so the
// overlay does not vanish abruptly.
const unlockCollapseDelay = 820 * time.Millisecond

// Idle debounce bounds; the user-configured interval is clamped into them.
const (
	idleDebounceMin = 200 * time.Millisecond
	idleDebounceMax = 820 * time.Millisecond
)

// Widget is anything the coordinator shows and hides around lock changes.
type Widget interface {
	Show()
	Hide()
}

// Chimer plays lock feedback sounds. Nil disables chimes entirely.
type Chimer interface {
	Play(kind ChimeKind)
}

// Widgets are the surfaces the coordinator sequences. Any field may be nil.
type Widgets struct {
	PanelHost    Widget // lock-screen panel host window
	LiveActivity Widget // live-activity overlay window
	Weather      Widget
	Timer        Widget
	Reminder     Widget
	TimerControl Widget // always-visible timer control, hidden while locked
}

// Options configures a Coordinator.
type Options struct {
	Widgets  Widgets
	Chimer   Chimer
	Settings func() models.LockScreenConfig // live settings supplier
	Screens  func() []models.Screen         // current display list supplier
	// CloseOverlay closes any open expanded overlay or sneak peek before the
	// lock-screen panels come up.
	CloseOverlay func()
	// CollapseLiveActivity runs the delayed collapse animation after unlock.
	CollapseLiveActivity func()
	Now                  func() time.Time
}

// Coordinator derives the binary lock state from distributed notifications,
// suppressing duplicates, and gates every lock-screen widget on it.
type Coordinator struct {
	mu sync.Mutex

	opts    Options
	now     func() time.Time
	widgets Widgets

	locked bool
	idle   bool

	lastChime     map[ChimeKind]time.Time
	idleTimer     *time.Timer
	collapseTimer *time.Timer

	context models.LockScreenContext

	lockedFeed *bus.Feed[bool]
	idleFeed   *bus.Feed[bool]
	ctxFeed    *bus.Feed[models.LockScreenContext]
}

// NewCoordinator creates a coordinator.
func NewCoordinator(opts Options) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Coordinator{
		opts:       opts,
		now:        opts.Now,
		widgets:    opts.Widgets,
		lastChime:  make(map[ChimeKind]time.Time),
		lockedFeed: bus.NewFeed[bool](),
		idleFeed:   bus.NewFeed[bool](),
		ctxFeed:    bus.NewFeed[models.LockScreenContext](),
	}
	c.lockedFeed.Publish(false)
	c.idleFeed.Publish(false)
	c.refreshContext()
	return c
}

// SetWidgets registers the widget surfaces the coordinator sequences. May be
// called after construction, once the panel managers exist.
func (c *Coordinator) SetWidgets(w Widgets) {
	c.mu.Lock()
	c.widgets = w
	c.mu.Unlock()
}

// IsLocked reports the current lock state.
func (c *Coordinator) IsLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// IsLockIdle reports whether the lock screen has sat untouched past the idle
// debounce.
func (c *Coordinator) IsLockIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle
}

// Locked returns the lock-state feed.
func (c *Coordinator) Locked() *bus.Feed[bool] { return c.lockedFeed }

// Idle returns the lock-idle feed.
func (c *Coordinator) Idle() *bus.Feed[bool] { return c.idleFeed }

// Context returns the lock-screen context feed.
func (c *Coordinator) Context() *bus.Feed[models.LockScreenContext] { return c.ctxFeed }

// LockScreenContext returns the display currently hosting lock-screen UI.
func (c *Coordinator) LockScreenContext() models.LockScreenContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.context
}

// Run consumes notification events until ctx is done.
func (c *Coordinator) Run(ctx context.Context, source notify.Source) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-source.Events():
			if !ok {
				return
			}
			c.Handle(ev)
		}
	}
}

// Handle applies one notification event.
func (c *Coordinator) Handle(ev notify.Event) {
	switch ev.Type {
	case notify.EventScreenLocked:
		c.setLocked(true)
	case notify.EventScreenUnlocked:
		c.setLocked(false)
	case notify.EventScreensDidWake, notify.EventScreenParamsChanged:
		c.refreshContext()
	}
}

// setLocked flips the state synchronously and sequences widget visibility.
// Duplicate notifications are absorbed.
func (c *Coordinator) setLocked(locked bool) {
	c.mu.Lock()
	if c.locked == locked {
		c.mu.Unlock()
		return
	}
	c.locked = locked
	c.idle = false
	c.restartIdleTimerLocked()
	if c.collapseTimer != nil {
		c.collapseTimer.Stop()
		c.collapseTimer = nil
	}
	w := c.widgets
	cfg := models.LockScreenConfig{}
	if c.opts.Settings != nil {
		cfg = c.opts.Settings()
	}
	c.mu.Unlock()

	log.Printf("[lockstate] screen %s", map[bool]string{true: "locked", false: "unlocked"}[locked])
	c.lockedFeed.Publish(locked)
	c.idleFeed.Publish(false)

	if locked {
		c.chime(ChimeLock, cfg)
		if c.opts.CloseOverlay != nil {
			c.opts.CloseOverlay()
		}
		show(w.PanelHost)
		show(w.LiveActivity)
		if cfg.ShowWeather {
			show(w.Weather)
		}
		if cfg.ShowTimer {
			show(w.Timer)
		}
		if cfg.ShowReminder {
			show(w.Reminder)
		}
		hide(w.TimerControl)
		return
	}

	c.chime(ChimeUnlock, cfg)
	hide(w.PanelHost)
	hide(w.Weather)
	hide(w.Reminder)
	hide(w.Timer)
	show(w.TimerControl)
	if cfg.ShowLiveActivity && c.opts.CollapseLiveActivity != nil {
		c.mu.Lock()
		c.collapseTimer = time.AfterFunc(unlockCollapseDelay, c.opts.CollapseLiveActivity)
		c.mu.Unlock()
	} else {
		hide(w.LiveActivity)
	}
}

// chime plays a sound, throttled per chime type.
func (c *Coordinator) chime(kind ChimeKind, cfg models.LockScreenConfig) {
	if c.opts.Chimer == nil || !cfg.ChimeEnabled {
		return
	}
	c.mu.Lock()
	now := c.now()
	if now.Sub(c.lastChime[kind]) < chimeThrottle {
		c.mu.Unlock()
		return
	}
	c.lastChime[kind] = now
	c.mu.Unlock()

	c.opts.Chimer.Play(kind)
}

// restartIdleTimerLocked cancels and re-arms the idle debounce. Fires only
// while locked. Caller holds c.mu.
func (c *Coordinator) restartIdleTimerLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
	if !c.locked {
		return
	}
	interval := idleDebounceMax
	if c.opts.Settings != nil {
		configured := time.Duration(c.opts.Settings().IdleIntervalSec * float64(time.Second))
		interval = clampDuration(configured, idleDebounceMin, idleDebounceMax)
	}
	c.idleTimer = time.AfterFunc(interval, c.markIdle)
}

func (c *Coordinator) markIdle() {
	c.mu.Lock()
	if !c.locked || c.idle {
		c.mu.Unlock()
		return
	}
	c.idle = true
	c.mu.Unlock()
	c.idleFeed.Publish(true)
}

// refreshContext recomputes which display hosts the lock screen: the
// built-in display first, else the OS main display, else any screen.
func (c *Coordinator) refreshContext() {
	if c.opts.Screens == nil {
		return
	}
	screens := c.opts.Screens()
	if len(screens) == 0 {
		return
	}

	chosen := screens[0]
	for _, s := range screens {
		if s.Builtin {
			chosen = s
			break
		}
		if s.Main && !chosen.Builtin {
			chosen = s
		}
	}

	c.mu.Lock()
	c.context = models.LockScreenContext{
		Screen:     chosen,
		Frame:      chosen.Frame,
		Identifier: chosen.ID,
	}
	ctx := c.context
	c.mu.Unlock()

	c.ctxFeed.Publish(ctx)
}

func show(w Widget) {
	if w != nil {
		w.Show()
	}
}

func hide(w Widget) {
	if w != nil {
		w.Hide()
	}
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
