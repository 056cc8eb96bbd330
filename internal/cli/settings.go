package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/notchly-app/notchly/internal/config"
	"github.com/notchly-app/notchly/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting by dotted key, e.g.:

  notchly settings set reminders.lead_minutes 15
  notchly settings set lock_screen.show_weather false
  notchly settings set widgets.timer.vertical_offset -40

The daemon picks changes up without a restart.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := applySetting(settings, key, value); err != nil {
		return err
	}

	path, err := config.GlobalSettingsFile()
	if err != nil {
		return err
	}
	if err := config.SaveYAML(path, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Printf("%s %s = %s\n", styleSuccess.Render("Set"), key, styleValue.Render(value))
	return nil
}

func applySetting(s *models.Settings, key, value string) error {
	switch key {
	case "reminders.enabled":
		return setBool(&s.Reminders.Enabled, value)
	case "reminders.lead_minutes":
		return setInt(&s.Reminders.LeadMinutes, value)
	case "reminders.critical_window_seconds":
		return setInt(&s.Reminders.CriticalWindowSec, value)
	case "reminders.hide_all_day":
		return setBool(&s.Reminders.HideAllDay, value)
	case "reminders.hide_completed":
		return setBool(&s.Reminders.HideCompleted, value)
	case "lock_screen.show_weather":
		return setBool(&s.LockScreen.ShowWeather, value)
	case "lock_screen.show_timer":
		return setBool(&s.LockScreen.ShowTimer, value)
	case "lock_screen.show_reminder":
		return setBool(&s.LockScreen.ShowReminder, value)
	case "lock_screen.show_live_activity":
		return setBool(&s.LockScreen.ShowLiveActivity, value)
	case "lock_screen.chime_enabled":
		return setBool(&s.LockScreen.ChimeEnabled, value)
	case "lock_screen.idle_interval_seconds":
		return setFloat(&s.LockScreen.IdleIntervalSec, value)
	case "widgets.music.vertical_offset":
		return setFloat(&s.Widgets.Music.VerticalOffset, value)
	case "widgets.weather.vertical_offset":
		return setFloat(&s.Widgets.Weather.VerticalOffset, value)
	case "widgets.timer.vertical_offset":
		return setFloat(&s.Widgets.Timer.VerticalOffset, value)
	case "widgets.reminder.vertical_offset":
		return setFloat(&s.Widgets.Reminder.VerticalOffset, value)
	case "weather.provider":
		if value != "open-meteo" && value != "met-no" {
			return fmt.Errorf("unknown provider %q (expected open-meteo or met-no)", value)
		}
		s.Weather.Provider = value
		return nil
	case "weather.units":
		if value != "metric" && value != "imperial" {
			return fmt.Errorf("unknown units %q (expected metric or imperial)", value)
		}
		s.Weather.Units = value
		return nil
	case "weather.latitude":
		return setFloat(&s.Weather.Latitude, value)
	case "weather.longitude":
		return setFloat(&s.Weather.Longitude, value)
	}
	return fmt.Errorf("unknown setting %q", key)
}

func setBool(dst *bool, value string) error {
	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	default:
		return fmt.Errorf("expected a boolean, got %q", value)
	}
	return nil
}

func setInt(dst *int, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("expected an integer, got %q", value)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", value)
	}
	*dst = v
	return nil
}
