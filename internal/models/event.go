package models

import "time"

// AttendanceStatus is the user's participation status on a calendar event.
type AttendanceStatus string

const (
	AttendanceUnknown   AttendanceStatus = ""
	AttendanceAccepted  AttendanceStatus = "accepted"
	AttendanceTentative AttendanceStatus = "tentative"
	AttendanceDeclined  AttendanceStatus = "declined"
)

// CalendarInfo describes one calendar source (an ICS subscription) that
// events are attributed to.
type CalendarInfo struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Color string `yaml:"color"` // hex accent color, e.g. "#FF9F0A"
}

// CalendarEvent is an immutable snapshot of one event occurrence. The event
// list is replaced wholesale on every calendar refresh; nothing downstream
// mutates it.
type CalendarEvent struct {
	ID         string
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	CalendarID string
	Color      string
	IsReminder bool // reminder-type item (has a completion state)
	Completed  bool
	Attendance AttendanceStatus
}

// Started reports whether the event's start time has already passed.
func (e CalendarEvent) Started(now time.Time) bool {
	return !now.Before(e.Start)
}

// ReminderEntry is a derived value: an event paired with the instant its
// reminder should first become active.
type ReminderEntry struct {
	Event       CalendarEvent
	TriggerDate time.Time
	LeadTime    time.Duration
}

// NewReminderEntry computes the trigger timestamp for an event and lead time.
func NewReminderEntry(event CalendarEvent, lead time.Duration) ReminderEntry {
	return ReminderEntry{
		Event:       event,
		TriggerDate: event.Start.Add(-lead),
		LeadTime:    lead,
	}
}

// InWindow reports whether now is inside the entry's active window
// [trigger, start).
func (r ReminderEntry) InWindow(now time.Time) bool {
	return !now.Before(r.TriggerDate) && now.Before(r.Event.Start)
}
