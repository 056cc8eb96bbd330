package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notchly-app/notchly/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and widget configuration status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return err
	}

	if running && info != nil {
		fmt.Printf("%s (PID %d)\n", styleSuccess.Render("Daemon running"), info.PID)
	} else {
		fmt.Println(styleWarning.Render("Daemon not running"))
		fmt.Println(styleHint.Render("Start it with: notchly daemon start"))
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	fmt.Println()
	fmt.Println(styleBrand.Render("Reminders"))
	fmt.Printf("  %s %s\n", styleLabel.Render("Enabled:"), onOff(settings.Reminders.Enabled))
	fmt.Printf("  %s %s\n", styleLabel.Render("Lead time:"), styleValue.Render(settings.Reminders.LeadTime().String()))
	fmt.Printf("  %s %s\n", styleLabel.Render("Critical window:"), styleValue.Render(settings.Reminders.CriticalWindow().String()))

	fmt.Println(styleBrand.Render("Lock screen"))
	fmt.Printf("  %s %s\n", styleLabel.Render("Weather widget:"), onOff(settings.LockScreen.ShowWeather))
	fmt.Printf("  %s %s\n", styleLabel.Render("Timer widget:"), onOff(settings.LockScreen.ShowTimer))
	fmt.Printf("  %s %s\n", styleLabel.Render("Reminder widget:"), onOff(settings.LockScreen.ShowReminder))
	fmt.Printf("  %s %s\n", styleLabel.Render("Chime:"), onOff(settings.LockScreen.ChimeEnabled))

	fmt.Println(styleBrand.Render("Calendars"))
	if len(settings.Calendars) == 0 {
		fmt.Println(styleHint.Render("  No calendar subscriptions configured."))
	} else {
		for _, cal := range settings.Calendars {
			fmt.Printf("  %s %s\n", styleValue.Render(cal.Title), styleLabel.Render(cal.URL))
		}
	}

	meta, err := config.LoadTimerMeta()
	if err == nil && meta.Name != "" {
		fmt.Println(styleBrand.Render("Timer"))
		fmt.Printf("  %s %s (%s)\n", styleLabel.Render("Configured:"), styleValue.Render(meta.Name), meta.Duration())
	}

	return nil
}

func onOff(v bool) string {
	if v {
		return styleSuccess.Render("on")
	}
	return styleLabel.Render("off")
}
