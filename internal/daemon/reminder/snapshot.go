package reminder

import (
	"fmt"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// snapshotLocked builds the lock-screen-safe view of the active entry. The
// zero snapshot means "nothing to show". Caller holds m.mu.
func (m *Manager) snapshotLocked() models.ReminderSnapshot {
	if m.active == nil {
		return models.ReminderSnapshot{}
	}
	now := m.now()
	entry := m.active.entry

	title := entry.Event.Title
	if title == "" {
		title = placeholderTitle
	}

	criticalStart := entry.Event.Start.Add(-m.cfg.CriticalWindow())
	return models.ReminderSnapshot{
		Title:    title,
		TimeText: entry.Event.Start.Format("15:04"),
		Relative: relativeDescription(entry.Event.Start.Sub(now)),
		Color:    entry.Event.Color,
		Critical: !now.Before(criticalStart),
	}
}

// publishSnapshot republishes the active state. The feeds absorb unchanged
// content, so calling this after every transition is safe.
func (m *Manager) publishSnapshot() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	activeID := ""
	if m.active != nil {
		activeID = m.active.entry.Event.ID
	}
	m.mu.Unlock()

	m.snapshots.Publish(snap)
	m.activeFeed.Publish(activeID)
}

// relativeDescription renders a human description of time-until-start:
// "now" inside the final minute, "in N min" before that.
func relativeDescription(until time.Duration) string {
	if until < time.Minute {
		return "now"
	}
	mins := int(until.Round(time.Minute) / time.Minute)
	if mins < 60 {
		return fmt.Sprintf("in %d min", mins)
	}
	hours := mins / 60
	rem := mins % 60
	if rem == 0 {
		return fmt.Sprintf("in %d h", hours)
	}
	return fmt.Sprintf("in %d h %d min", hours, rem)
}
