package cli

import (
	"testing"

	"github.com/notchly-app/notchly/internal/models"
)

func TestApplySetting(t *testing.T) {
	cases := []struct {
		key   string
		value string
		check func(*models.Settings) bool
	}{
		{"reminders.enabled", "false", func(s *models.Settings) bool { return !s.Reminders.Enabled }},
		{"reminders.lead_minutes", "25", func(s *models.Settings) bool { return s.Reminders.LeadMinutes == 25 }},
		{"reminders.critical_window_seconds", "90", func(s *models.Settings) bool { return s.Reminders.CriticalWindowSec == 90 }},
		{"reminders.hide_all_day", "yes", func(s *models.Settings) bool { return s.Reminders.HideAllDay }},
		{"lock_screen.show_weather", "off", func(s *models.Settings) bool { return !s.LockScreen.ShowWeather }},
		{"lock_screen.chime_enabled", "1", func(s *models.Settings) bool { return s.LockScreen.ChimeEnabled }},
		{"lock_screen.idle_interval_seconds", "0.5", func(s *models.Settings) bool { return s.LockScreen.IdleIntervalSec == 0.5 }},
		{"widgets.timer.vertical_offset", "-40", func(s *models.Settings) bool { return s.Widgets.Timer.VerticalOffset == -40 }},
		{"weather.provider", "met-no", func(s *models.Settings) bool { return s.Weather.Provider == "met-no" }},
		{"weather.units", "imperial", func(s *models.Settings) bool { return s.Weather.Units == "imperial" }},
		{"weather.latitude", "52.52", func(s *models.Settings) bool { return s.Weather.Latitude == 52.52 }},
	}

	for _, c := range cases {
		s := models.NewSettings()
		if err := applySetting(s, c.key, c.value); err != nil {
			t.Errorf("applySetting(%q, %q): %v", c.key, c.value, err)
			continue
		}
		if !c.check(s) {
			t.Errorf("applySetting(%q, %q) did not take effect", c.key, c.value)
		}
	}
}

func TestApplySettingRejectsBadInput(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"reminders.enabled", "maybe"},
		{"reminders.lead_minutes", "soon"},
		{"weather.provider", "noaa"},
		{"weather.units", "kelvin"},
		{"weather.latitude", "north"},
		{"no.such.key", "1"},
	}
	for _, c := range cases {
		s := models.NewSettings()
		if err := applySetting(s, c.key, c.value); err == nil {
			t.Errorf("applySetting(%q, %q) accepted bad input", c.key, c.value)
		}
	}
}
