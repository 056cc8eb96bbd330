package daemon

import (
	"fmt"
	"time"

	"github.com/notchly-app/notchly/internal/buildinfo"
)

// TrayState adapts a Daemon to the tray's read-only state interface.
type TrayState struct {
	d        *Daemon
	shutdown func()
}

// NewTrayState creates the tray adapter. shutdown is invoked when the user
// picks Quit from the menu.
func NewTrayState(d *Daemon, shutdown func()) *TrayState {
	return &TrayState{d: d, shutdown: shutdown}
}

func (t *TrayState) Version() string { return buildinfo.Version }

func (t *TrayState) NextReminder() string {
	if entry, ok := t.d.reminders.ActiveReminder(); ok {
		title := entry.Event.Title
		if title == "" {
			title = "Reminder"
		}
		return fmt.Sprintf("%s at %s", title, entry.Event.Start.Local().Format("15:04"))
	}
	upcoming := t.d.reminders.UpcomingEntries()
	if len(upcoming) == 0 {
		return ""
	}
	next := upcoming[0]
	title := next.Event.Title
	if title == "" {
		title = "Reminder"
	}
	return fmt.Sprintf("%s at %s", title, next.Event.Start.Local().Format("15:04"))
}

func (t *TrayState) TimerSummary() string {
	state := t.d.timers.State()
	if !state.Active() {
		return ""
	}
	remaining := state.Remaining
	if remaining < 0 {
		remaining = -remaining
	}
	remaining = remaining.Round(time.Second)
	mins := int(remaining.Minutes())
	secs := int(remaining.Seconds()) % 60
	text := fmt.Sprintf("%s %d:%02d", state.Name, mins, secs)
	if state.IsOvertime {
		text = "-" + text
	}
	if state.IsPaused {
		text += " (paused)"
	}
	return text
}

func (t *TrayState) IsLocked() bool { return t.d.coordinator.IsLocked() }

func (t *TrayState) RefreshWeather() { t.d.RefreshWeatherNow() }

func (t *TrayState) RequestShutdown() {
	if t.shutdown != nil {
		t.shutdown()
	}
}
