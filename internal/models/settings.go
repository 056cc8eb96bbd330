package models

import "time"

// ReminderConfig holds reminder live-activity settings.
type ReminderConfig struct {
	Enabled           bool `yaml:"enabled"`
	LeadMinutes       int  `yaml:"lead_minutes"`
	CriticalWindowSec int  `yaml:"critical_window_seconds"`
	HideAllDay        bool `yaml:"hide_all_day"`
	HideCompleted     bool `yaml:"hide_completed"`
}

// LeadTime returns the configured lead time as a duration.
func (r ReminderConfig) LeadTime() time.Duration {
	return time.Duration(r.LeadMinutes) * time.Minute
}

// CriticalWindow returns the configured critical window as a duration.
func (r ReminderConfig) CriticalWindow() time.Duration {
	return time.Duration(r.CriticalWindowSec) * time.Second
}

// LockScreenConfig holds lock-screen widget visibility and behavior settings.
type LockScreenConfig struct {
	ShowWeather      bool    `yaml:"show_weather"`
	ShowTimer        bool    `yaml:"show_timer"`
	ShowReminder     bool    `yaml:"show_reminder"`
	ShowLiveActivity bool    `yaml:"show_live_activity"`
	ChimeEnabled     bool    `yaml:"chime_enabled"`
	IdleIntervalSec  float64 `yaml:"idle_interval_seconds"`
}

// WidgetConfig holds per-widget placement settings.
type WidgetConfig struct {
	VerticalOffset float64 `yaml:"vertical_offset"` // points, clamped to ±160 at use
}

// WidgetsConfig holds placement settings for every lock-screen widget.
type WidgetsConfig struct {
	Music    WidgetConfig `yaml:"music"`
	Weather  WidgetConfig `yaml:"weather"`
	Timer    WidgetConfig `yaml:"timer"`
	Reminder WidgetConfig `yaml:"reminder"`
}

// WeatherConfig selects the weather provider and unit system.
type WeatherConfig struct {
	Provider  string  `yaml:"provider"` // "open-meteo" | "met-no"
	Units     string  `yaml:"units"`    // "metric" | "imperial"
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// CalendarSource is one ICS subscription feeding the event adapter.
type CalendarSource struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Color string `yaml:"color"`
}

// Settings represents global application settings.
// This corresponds to ~/.notchly/settings.yaml.
type Settings struct {
	Version    int              `yaml:"version"`
	Reminders  ReminderConfig   `yaml:"reminders"`
	LockScreen LockScreenConfig `yaml:"lock_screen"`
	Widgets    WidgetsConfig    `yaml:"widgets"`
	Weather    WeatherConfig    `yaml:"weather"`
	Calendars  []CalendarSource `yaml:"calendars"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Reminders: ReminderConfig{
			Enabled:           true,
			LeadMinutes:       10,
			CriticalWindowSec: 60,
			HideAllDay:        true,
			HideCompleted:     true,
		},
		LockScreen: LockScreenConfig{
			ShowWeather:      true,
			ShowTimer:        true,
			ShowReminder:     true,
			ShowLiveActivity: true,
			ChimeEnabled:     true,
			IdleIntervalSec:  0.5,
		},
		Weather: WeatherConfig{
			Provider: "open-meteo",
			Units:    "metric",
		},
	}
}
