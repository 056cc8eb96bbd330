package systimer

import (
	"log"
	"sync"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// AXProbe reads the menu-bar timer indicator through the Accessibility tree.
// Used only when the log stream cannot run. Implementations return nil when
// no timer element is visible.
type AXProbe interface {
	Trusted() bool
	ReadTimer() (*models.ExternalObservation, error)
}

// Bridge reconstructs the external timer from redundant signal paths and
// drives the Manager with the reconciled result. It tracks at most one
// system timer identifier at a time.
type Bridge struct {
	mu  sync.Mutex
	mgr *Manager
	now func() time.Time

	tracked string // log identifier currently mirrored, "" when none
	phase   models.ExternalPhase

	logObs  *models.ExternalObservation
	axObs   *models.ExternalObservation
	prefObs *models.ExternalObservation
	last    sample

	ax       AXProbe
	pollStop chan struct{}

	permissionLogged bool
}

// NewBridge creates a bridge over the given manager and accessibility probe.
// ax may be nil when the probe is unavailable.
func NewBridge(mgr *Manager, ax AXProbe, now func() time.Time) *Bridge {
	if now == nil {
		now = time.Now
	}
	return &Bridge{mgr: mgr, now: now, ax: ax, phase: models.PhaseUnknown}
}

// Tracked returns the mirrored identifier and phase.
func (b *Bridge) Tracked() (string, models.ExternalPhase) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracked, b.phase
}

// HandleEvent advances the per-identifier state machine with one decoded log
// event.
func (b *Bridge) HandleEvent(ev timerEvent) {
	b.mu.Lock()
	switch ev.Kind {
	case eventStarted, eventNextChanged:
		if b.tracked != ev.ID {
			log.Printf("[systimer] tracking timer %s", ev.ID)
		}
		b.tracked = ev.ID
		b.phase = models.PhaseTracking
		obs := &models.ExternalObservation{Identifier: ev.ID, ObservedAt: b.now()}
		if ev.Duration != nil {
			obs.Total = ev.Duration
			obs.Remaining = ev.Duration
		}
		b.logObs = obs
		b.last = sample{}

	case eventState:
		if ev.ID != b.tracked {
			b.mu.Unlock()
			return
		}
		switch ev.StateTok {
		case "running", "paused":
			paused := ev.StateTok == "paused"
			if paused {
				b.phase = models.PhasePaused
			} else {
				b.phase = models.PhaseRunning
			}
			obs := &models.ExternalObservation{Identifier: ev.ID, Paused: &paused, ObservedAt: b.now()}
			if b.logObs != nil {
				obs.Total = b.logObs.Total
				obs.Name = b.logObs.Name
			}
			if ev.Remaining != nil {
				obs.Remaining = ev.Remaining
			} else if b.logObs != nil {
				obs.Remaining = b.logObs.Remaining
			}
			b.logObs = obs
		case "fired":
			b.phase = models.PhaseFired
			zero := time.Duration(0)
			paused := false
			b.logObs = &models.ExternalObservation{Identifier: ev.ID, Remaining: &zero, Paused: &paused, Fired: true, ObservedAt: b.now()}
		}

	case eventStopped:
		if ev.ID != b.tracked {
			b.mu.Unlock()
			return
		}
		b.clearLocked("stopped")
		b.mu.Unlock()
		b.mgr.ClearExternal()
		return

	case eventDump:
		if b.tracked == "" {
			// Adopt the active entry named by a full dump.
			for _, e := range ev.Entries {
				if e.StateTok == "running" {
					b.tracked = e.ID
					b.phase = models.PhaseRunning
					paused := false
					rem := e.Remaining
					b.logObs = &models.ExternalObservation{Identifier: e.ID, Paused: &paused, Remaining: &rem, ObservedAt: b.now()}
					break
				}
			}
			if b.tracked == "" {
				b.mu.Unlock()
				return
			}
		} else {
			found := false
			for _, e := range ev.Entries {
				if e.ID != b.tracked {
					continue
				}
				found = true
				paused := e.StateTok == "paused"
				rem := e.Remaining
				b.logObs = &models.ExternalObservation{Identifier: e.ID, Paused: &paused, Remaining: &rem, ObservedAt: b.now()}
			}
			if !found {
				// The dump was expected to contain the tracked timer.
				b.clearLocked("absent from dump")
				b.mu.Unlock()
				b.mgr.ClearExternal()
				return
			}
		}

	default:
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	b.reconcile()
}

// SetPreferenceMetadata supplies the lowest-priority source: timer title and
// duration from the preferences domain. Reconciled only where richer sources
// lack the field.
func (b *Bridge) SetPreferenceMetadata(name string, total time.Duration) {
	b.mu.Lock()
	obs := &models.ExternalObservation{ObservedAt: b.now()}
	if name != "" {
		obs.Name = &name
	}
	if total > 0 {
		obs.Total = &total
	}
	b.prefObs = obs
	tracked := b.tracked
	b.mu.Unlock()

	if tracked != "" {
		b.reconcile()
	}
}

// reconcile merges the three sources and pushes the result to the manager.
func (b *Bridge) reconcile() {
	b.mu.Lock()
	if b.tracked == "" {
		b.mu.Unlock()
		return
	}
	merged := merge(b.logObs, b.axObs, b.prefObs, b.last)
	if merged.Remaining != nil {
		b.last = sample{remaining: *merged.Remaining, at: b.now(), valid: true}
	}
	fired := merged.Fired || b.phase == models.PhaseFired
	b.mu.Unlock()

	b.mgr.ApplyExternal(merged)
	if fired {
		b.mgr.CompleteExternal()
	}
}

func (b *Bridge) clearLocked(reason string) {
	log.Printf("[systimer] cleared timer %s (%s)", b.tracked, reason)
	b.tracked = ""
	b.phase = models.PhaseUnknown
	b.logObs = nil
	b.axObs = nil
	b.last = sample{}
}

// StartPolling begins the 1-second accessibility fallback, used while the
// log stream is down. Missing permission is logged once, not per failure.
func (b *Bridge) StartPolling() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pollStop != nil {
		return
	}
	if b.ax == nil || !b.ax.Trusted() {
		if !b.permissionLogged {
			log.Printf("[systimer] accessibility not trusted; timer mirroring inert until granted")
			b.permissionLogged = true
		}
		return
	}

	stop := make(chan struct{})
	b.pollStop = stop
	go b.pollLoop(stop)
}

// StopPolling halts the accessibility fallback, typically because the log
// stream came back.
func (b *Bridge) StopPolling() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pollStop != nil {
		close(b.pollStop)
		b.pollStop = nil
	}
}

func (b *Bridge) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			obs, err := b.ax.ReadTimer()
			if err != nil {
				continue
			}
			b.mu.Lock()
			b.axObs = obs
			if obs != nil && b.tracked == "" {
				// The poll cannot see log identifiers; mirror under a
				// synthetic one until the stream recovers.
				b.tracked = "AX"
				b.phase = models.PhaseRunning
			}
			cleared := obs == nil && b.tracked == "AX"
			if cleared {
				b.clearLocked("indicator gone")
			}
			b.mu.Unlock()
			if cleared {
				b.mgr.ClearExternal()
				continue
			}
			b.reconcile()
		}
	}
}
