package reminder

import (
	"context"
	"time"

	"github.com/notchly-app/notchly/internal/bus"
	"github.com/notchly-app/notchly/internal/models"
)

const (
	// eventSettleDelay coalesces rapid successive calendar store notifications.
	eventSettleDelay = 350 * time.Millisecond

	// settingSettleDelay coalesces rapid settings churn; only the last
	// pending configuration is applied.
	settingSettleDelay = 200 * time.Millisecond
)

// Run consumes calendar snapshots and settings changes until ctx is done.
// Both inputs are debounced; the state machine itself only ever sees settled
// values.
func (m *Manager) Run(ctx context.Context, events <-chan []models.CalendarEvent, settings <-chan models.ReminderConfig) {
	evDebounce := &bus.Debouncer{Delay: eventSettleDelay}
	cfgDebounce := &bus.Debouncer{Delay: settingSettleDelay}
	defer evDebounce.Cancel()
	defer cfgDebounce.Cancel()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case evs, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			evDebounce.Trigger(func() { m.SetEvents(evs) })
		case cfg, ok := <-settings:
			if !ok {
				settings = nil
				continue
			}
			cfgDebounce.Trigger(func() { m.UpdateConfig(cfg) })
		}
	}
}
