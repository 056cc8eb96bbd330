// Package reminder implements the reminder live-activity evaluation state
// machine: it watches the calendar event snapshot, decides which reminder (if
// any) is active, requests sneak-peek overlays, and republishes a
// lock-screen-safe snapshot.
package reminder

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/notchly-app/notchly/internal/bus"
	"github.com/notchly-app/notchly/internal/models"
)

// PeekKind selects which sneak-peek overlay treatment to show.
type PeekKind string

const (
	PeekStandard PeekKind = "standard"
	PeekCritical PeekKind = "critical"
)

// Overlay receives sneak-peek requests. Implemented by the live-activity
// window layer; faked in tests.
type Overlay interface {
	ShowSneakPeek(kind PeekKind, snapshot models.ReminderSnapshot)
}

// unlockCooldown throttles how soon after an unlock a full recompute may run
// again.
const unlockCooldown = 5 * time.Second

// placeholderTitle renders for reminders with empty titles.
const placeholderTitle = "Reminder"

// activeEntry tracks the currently active reminder plus its once-per-entry
// overlay flags. The flags live here, on the entry itself, so no reset
// ordering elsewhere can leak a peek across entries.
type activeEntry struct {
	entry         models.ReminderEntry
	shownStandard bool
	shownCritical bool
}

// Options configures a Manager.
type Options struct {
	Config  models.ReminderConfig
	Overlay Overlay
	Now     func() time.Time // nil means time.Now
}

// Manager is the reminder evaluation state machine. All state transitions run
// under one mutex; background recomputation hands immutable results back
// through Apply with a generation check so stale work never lands.
type Manager struct {
	mu sync.Mutex

	cfg     models.ReminderConfig
	overlay Overlay
	now     func() time.Time

	upcoming []models.ReminderEntry
	active   *activeEntry

	events []models.CalendarEvent // last applied event snapshot

	generation uint64 // recompute token; results from older generations are dropped

	locked        bool
	pendingEvents []models.CalendarEvent // queued while locked
	pendingDirty  bool
	lastRecompute time.Time // last unlock-triggered recompute, for the cooldown
	cooldownTimer *time.Timer

	wakeTimer  *time.Timer // one-shot armed at the next evaluation boundary
	ticker     *time.Ticker
	tickerDone chan struct{}

	snapshots  *bus.Feed[models.ReminderSnapshot]
	activeFeed *bus.Feed[string] // active event id, "" when none
}

// NewManager creates a reminder manager.
func NewManager(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cfg:        opts.Config,
		overlay:    opts.Overlay,
		now:        now,
		snapshots:  bus.NewFeed[models.ReminderSnapshot](),
		activeFeed: bus.NewFeed[string](),
	}
}

// Snapshots returns the lock-screen snapshot feed.
func (m *Manager) Snapshots() *bus.Feed[models.ReminderSnapshot] {
	return m.snapshots
}

// ActiveIDs returns a feed of the active entry's event id, "" when none.
func (m *Manager) ActiveIDs() *bus.Feed[string] {
	return m.activeFeed
}

// ActiveReminder returns the active entry, if any.
func (m *Manager) ActiveReminder() (models.ReminderEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.ReminderEntry{}, false
	}
	return m.active.entry, true
}

// UpcomingEntries returns the queued upcoming entries, earliest trigger first.
func (m *Manager) UpcomingEntries() []models.ReminderEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ReminderEntry, len(m.upcoming))
	copy(out, m.upcoming)
	return out
}

// Config returns the current reminder configuration.
func (m *Manager) Config() models.ReminderConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// SetEvents applies a fresh calendar snapshot. While the screen is locked the
// snapshot is queued instead, so the lock-screen widget is not disturbed
// mid-display.
func (m *Manager) SetEvents(events []models.CalendarEvent) {
	m.mu.Lock()
	if m.locked {
		m.pendingEvents = events
		m.pendingDirty = true
		m.mu.Unlock()
		return
	}
	m.events = events
	m.mu.Unlock()
	m.recompute()
}

// UpdateConfig replaces the reminder settings and recomputes. Queued while
// locked, same as SetEvents.
func (m *Manager) UpdateConfig(cfg models.ReminderConfig) {
	m.mu.Lock()
	m.cfg = cfg
	if m.locked {
		m.pendingDirty = true
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.recompute()
}

// HandleLockChange gates recomputation on lock state. On unlock, queued work
// runs after the cooldown window from the previous unlock recompute.
func (m *Manager) HandleLockChange(locked bool) {
	m.mu.Lock()
	if m.locked == locked {
		m.mu.Unlock()
		return
	}
	m.locked = locked

	if locked {
		if m.cooldownTimer != nil {
			// The deferred recompute never ran; carry it over to the next
			// unlock instead of dropping the queued snapshot.
			m.cooldownTimer.Stop()
			m.cooldownTimer = nil
			m.pendingDirty = true
		}
		m.mu.Unlock()
		m.publishSnapshot()
		return
	}

	dirty := m.pendingDirty
	if dirty && m.pendingEvents != nil {
		m.events = m.pendingEvents
	}
	m.pendingEvents = nil
	m.pendingDirty = false

	now := m.now()
	wait := time.Duration(0)
	if since := now.Sub(m.lastRecompute); since < unlockCooldown {
		wait = unlockCooldown - since
	}
	m.lastRecompute = now
	m.mu.Unlock()

	m.publishSnapshot()
	if !dirty {
		m.evaluate()
		return
	}
	if wait <= 0 {
		m.recompute()
		return
	}
	m.mu.Lock()
	m.cooldownTimer = time.AfterFunc(wait, m.recompute)
	m.mu.Unlock()
}

// Wake forces a re-evaluation, used on screens-did-wake. The wall clock may
// have jumped past several triggers while the machine slept.
func (m *Manager) Wake() {
	m.evaluate()
}

// Stop cancels any armed timers and the critical ticker.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wakeTimer != nil {
		m.wakeTimer.Stop()
		m.wakeTimer = nil
	}
	if m.cooldownTimer != nil {
		m.cooldownTimer.Stop()
		m.cooldownTimer = nil
	}
	m.stopTickerLocked()
}

// recompute rebuilds the upcoming queue off the calling flow of control. Only
// the newest generation's result is applied; superseded computations publish
// nothing.
func (m *Manager) recompute() {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	events := m.events
	cfg := m.cfg
	m.mu.Unlock()

	go func() {
		entries := computeUpcoming(events, cfg, m.now())

		m.mu.Lock()
		if gen != m.generation {
			m.mu.Unlock()
			return
		}
		m.upcoming = entries
		m.mu.Unlock()
		m.evaluate()
	}()
}

// computeUpcoming filters and sorts the event list into reminder entries.
// Pure function; exercised directly by tests.
func computeUpcoming(events []models.CalendarEvent, cfg models.ReminderConfig, now time.Time) []models.ReminderEntry {
	if !cfg.Enabled {
		return nil
	}
	lead := cfg.LeadTime()
	entries := make([]models.ReminderEntry, 0, len(events))
	for _, ev := range events {
		if cfg.HideAllDay && ev.AllDay {
			continue
		}
		if cfg.HideCompleted && ev.Completed {
			continue
		}
		if !ev.Start.After(now) {
			continue
		}
		entries = append(entries, models.NewReminderEntry(ev, lead))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TriggerDate.Before(entries[j].TriggerDate)
	})
	return entries
}

// evaluate is the single state-evaluation step, called on every tick, after
// every recomputation, and on wake.
func (m *Manager) evaluate() {
	var peeks []func()

	m.mu.Lock()
	now := m.now()

	// Drop entries whose events have already started, including a stale
	// active entry, then advance onto the next candidate.
	for len(m.upcoming) > 0 && m.upcoming[0].Event.Started(now) {
		m.upcoming = m.upcoming[1:]
	}
	if m.active != nil && m.active.entry.Event.Started(now) {
		m.active = nil
	}

	if len(m.upcoming) == 0 && m.active == nil {
		m.stopTickerLocked()
		m.disarmLocked()
		m.mu.Unlock()
		m.publishSnapshot()
		return
	}

	if len(m.upcoming) > 0 {
		candidate := m.upcoming[0]
		switch {
		case candidate.InWindow(now):
			// A trigger computed in the past still activates; it is never skipped.
			if m.active == nil || m.active.entry.Event.ID != candidate.Event.ID {
				m.active = &activeEntry{entry: candidate}
			}
		case m.active == nil:
			// Scheduled: wait for the trigger instant instead of ticking.
			m.armLocked(candidate.TriggerDate.Sub(now))
		}
	}

	if m.active != nil {
		entry := m.active.entry
		criticalStart := entry.Event.Start.Add(-m.cfg.CriticalWindow())
		inCritical := !now.Before(criticalStart)

		if !m.active.shownStandard {
			m.active.shownStandard = true
			snap := m.snapshotLocked()
			peeks = append(peeks, func() { m.showPeek(PeekStandard, snap) })
		}
		if inCritical && !m.active.shownCritical {
			m.active.shownCritical = true
			snap := m.snapshotLocked()
			peeks = append(peeks, func() { m.showPeek(PeekCritical, snap) })
		}

		if inCritical {
			m.disarmLocked()
			m.startTickerLocked()
		} else {
			m.stopTickerLocked()
			m.armLocked(criticalStart.Sub(now))
		}
	}
	m.mu.Unlock()

	for _, fire := range peeks {
		fire()
	}
	m.publishSnapshot()
}

// armLocked schedules a one-shot evaluation after d, replacing any armed timer.
func (m *Manager) armLocked(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if m.wakeTimer != nil {
		m.wakeTimer.Stop()
	}
	m.wakeTimer = time.AfterFunc(d, m.evaluate)
}

func (m *Manager) disarmLocked() {
	if m.wakeTimer != nil {
		m.wakeTimer.Stop()
		m.wakeTimer = nil
	}
}

// startTickerLocked runs the 1-second evaluation ticker used only inside the
// critical window.
func (m *Manager) startTickerLocked() {
	if m.ticker != nil {
		return
	}
	m.ticker = time.NewTicker(time.Second)
	m.tickerDone = make(chan struct{})
	go func(tick *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-tick.C:
				m.evaluate()
			case <-done:
				return
			}
		}
	}(m.ticker, m.tickerDone)
}

func (m *Manager) stopTickerLocked() {
	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.tickerDone)
	m.ticker = nil
	m.tickerDone = nil
}

func (m *Manager) showPeek(kind PeekKind, snap models.ReminderSnapshot) {
	if m.overlay == nil {
		return
	}
	log.Printf("[reminder] sneak peek (%s): %s %s", kind, snap.Title, snap.Relative)
	m.overlay.ShowSneakPeek(kind, snap)
}
