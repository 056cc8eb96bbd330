package models

import "time"

// Rect is a screen-space rectangle in points. Origin is bottom-left, matching
// the display coordinate system the window surfaces use.
type Rect struct {
	X, Y, W, H float64
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the top edge of the rectangle.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// IsZero reports whether the rectangle is the zero value.
func (r Rect) IsZero() bool { return r == Rect{} }

// Screen describes one physical display.
type Screen struct {
	ID      string
	Frame   Rect
	Builtin bool
	Main    bool
}

// LockScreenContext records which display currently hosts the lock-screen
// widgets. Recomputed on screen-parameter-change and wake; consumed read-only
// by every panel manager so display discovery happens in exactly one place.
type LockScreenContext struct {
	Screen     Screen
	Frame      Rect
	Identifier string
}

// ReminderSnapshot is the lock-screen-safe view of the active reminder.
// Equality-comparable so publishers can skip redundant renders.
type ReminderSnapshot struct {
	Title    string
	TimeText string // formatted start time, e.g. "14:30"
	Relative string // "now" or "in 3 min"
	Color    string
	Critical bool
}

// TimerSnapshot is the lock-screen-safe view of the tracked timer.
type TimerSnapshot struct {
	Name      string
	Remaining time.Duration
	Paused    bool
	Overtime  bool
}

// MusicSnapshot is the lock-screen-safe view of the now-playing item.
type MusicSnapshot struct {
	Title   string
	Artist  string
	Playing bool
}

// WeatherSnapshot is the lock-screen-safe view of current conditions.
// Placeholder values ("--") appear only when no fetch has ever succeeded.
type WeatherSnapshot struct {
	Temperature string
	Condition   int // provider condition code
	High        string
	Low         string
	AirQuality  int // AQI, 0 when the provider reported none
	Sunrise     string
	Sunset      string
	FetchedAt   time.Time
}

// PlaceholderWeather is the snapshot rendered before any fetch succeeds.
func PlaceholderWeather() WeatherSnapshot {
	return WeatherSnapshot{Temperature: "--", High: "--", Low: "--"}
}
