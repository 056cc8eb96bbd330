package bus

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into one callback: each Trigger cancels
// the pending one, so only the most recent callback survives the settle
// window. The last pending action wins; actions are never accumulated.
type Debouncer struct {
	Delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// Trigger schedules fn after the settle delay, replacing any pending callback.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.Delay, fn)
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
