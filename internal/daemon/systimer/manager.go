// Package systimer tracks one logical timer fed by two redundant external
// signal paths (OS log stream, accessibility poll) plus a preference-file
// source, arbitrated against manually started in-app timers.
package systimer

import (
	"log"
	"sync"
	"time"

	"github.com/notchly-app/notchly/internal/bus"
	"github.com/notchly-app/notchly/internal/models"
)

// Manager owns the single TimerState. Invariant: only one source is active at
// a time. A manual start always preempts an active external timer; external
// updates are rejected while a manual timer runs.
type Manager struct {
	mu  sync.Mutex
	now func() time.Time

	state models.TimerState

	// manual countdown bookkeeping
	manualEndsAt   time.Time
	manualPausedAt time.Time
	ticker         *time.Ticker
	tickerDone     chan struct{}

	snapshots *bus.Feed[models.TimerSnapshot]
}

// NewManager creates a timer manager. now may be nil for the real clock.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{now: now, snapshots: bus.NewFeed[models.TimerSnapshot]()}
}

// Snapshots returns the timer snapshot feed.
func (m *Manager) Snapshots() *bus.Feed[models.TimerSnapshot] {
	return m.snapshots
}

// State returns the current timer state.
func (m *Manager) State() models.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StartManual starts a user-initiated timer, ending any active external timer
// without the smooth-close animation.
func (m *Manager) StartManual(name string, duration time.Duration) {
	m.mu.Lock()
	if m.state.Source == models.TimerSourceExternal {
		log.Printf("[timer] manual start preempts external timer %q", m.state.Name)
	}
	m.state = models.TimerState{
		Name:          name,
		TotalDuration: duration,
		Remaining:     duration,
		Source:        models.TimerSourceManual,
	}
	m.manualEndsAt = m.now().Add(duration)
	m.startTickerLocked()
	m.mu.Unlock()

	m.publish()
}

// PauseManual pauses the running manual timer. No-op for other sources.
func (m *Manager) PauseManual() {
	m.mu.Lock()
	if m.state.Source != models.TimerSourceManual || m.state.IsPaused {
		m.mu.Unlock()
		return
	}
	m.state.IsPaused = true
	m.manualPausedAt = m.now()
	m.mu.Unlock()

	m.publish()
}

// ResumeManual resumes a paused manual timer.
func (m *Manager) ResumeManual() {
	m.mu.Lock()
	if m.state.Source != models.TimerSourceManual || !m.state.IsPaused {
		m.mu.Unlock()
		return
	}
	m.manualEndsAt = m.manualEndsAt.Add(m.now().Sub(m.manualPausedAt))
	m.state.IsPaused = false
	m.mu.Unlock()

	m.publish()
}

// Stop clears the current timer regardless of source.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.state = models.TimerState{}
	m.stopTickerLocked()
	m.mu.Unlock()

	m.publish()
}

// Tick recomputes the manual countdown from the wall clock. Called by the
// internal ticker; exposed so tests can drive it with a fake clock. Remaining
// may go negative: a manual timer keeps counting into overtime.
func (m *Manager) Tick() {
	m.mu.Lock()
	if m.state.Source != models.TimerSourceManual || m.state.IsPaused {
		m.mu.Unlock()
		return
	}
	m.state.Remaining = m.manualEndsAt.Sub(m.now())
	m.state.IsOvertime = m.state.Remaining < 0
	m.mu.Unlock()

	m.publish()
}

// ApplyExternal reconciles a merged external observation into the published
// state. A no-op whenever a manual timer is the current source.
func (m *Manager) ApplyExternal(obs models.ExternalObservation) {
	m.mu.Lock()
	if m.state.Source == models.TimerSourceManual {
		m.mu.Unlock()
		return
	}
	m.stopTickerLocked()

	next := models.TimerState{Source: models.TimerSourceExternal}
	if m.state.Source == models.TimerSourceExternal {
		next = m.state
	}
	if obs.Name != nil {
		next.Name = *obs.Name
	}
	if obs.Total != nil {
		next.TotalDuration = *obs.Total
	}
	if obs.Remaining != nil {
		next.Remaining = *obs.Remaining
		if next.Remaining < 0 {
			// External overtime is reported through the completion signal, not
			// a negative countdown.
			next.Remaining = 0
		}
	}
	if obs.Paused != nil {
		next.IsPaused = *obs.Paused
	}
	m.state = next
	m.mu.Unlock()

	m.publish()
}

// CompleteExternal marks the external timer fired: remaining forced to zero.
// A no-op while a manual timer runs.
func (m *Manager) CompleteExternal() {
	m.mu.Lock()
	if m.state.Source == models.TimerSourceManual {
		m.mu.Unlock()
		return
	}
	if m.state.Source == models.TimerSourceExternal {
		m.state.Remaining = 0
		m.state.IsPaused = false
		m.state.IsOvertime = true
	}
	m.mu.Unlock()

	m.publish()
}

// ClearExternal drops the external timer (stopped, or vanished from a dump).
// A no-op while a manual timer runs.
func (m *Manager) ClearExternal() {
	m.mu.Lock()
	if m.state.Source != models.TimerSourceExternal {
		m.mu.Unlock()
		return
	}
	m.state = models.TimerState{}
	m.mu.Unlock()

	m.publish()
}

func (m *Manager) publish() {
	m.mu.Lock()
	snap := models.TimerSnapshot{
		Name:      m.state.Name,
		Remaining: m.state.Remaining,
		Paused:    m.state.IsPaused,
		Overtime:  m.state.IsOvertime,
	}
	m.mu.Unlock()
	m.snapshots.Publish(snap)
}

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
				m.Tick()
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
