package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/notchly-app/notchly/internal/config"
	"github.com/notchly-app/notchly/internal/models"
)

var timerName string

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Start or stop a manual timer",
}

var timerStartCmd = &cobra.Command{
	Use:   "start <duration>",
	Short: "Start a manual timer",
	Long: `Start a manual timer, e.g.:

  notchly timer start 5m
  notchly timer start 1h30m --name "Lasagna"`,
	Args: cobra.ExactArgs(1),
	RunE: runTimerStart,
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer",
	RunE:  runTimerStop,
}

func init() {
	timerStartCmd.Flags().StringVarP(&timerName, "name", "n", "", "timer name")
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerStopCmd)
}

func runTimerStart(cmd *cobra.Command, args []string) error {
	duration, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}
	if duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	if err := EnsureDaemon(); err != nil {
		return err
	}

	name := timerName
	if name == "" {
		name = "Timer"
	}
	meta := &models.TimerMeta{
		Name:            name,
		DurationSeconds: duration.Seconds(),
		Action:          "start",
		RequestedAt:     time.Now().UTC(),
	}
	if err := config.SaveTimerMeta(meta); err != nil {
		return fmt.Errorf("failed to request timer start: %w", err)
	}

	fmt.Printf("%s %s (%s)\n", styleSuccess.Render("Timer started:"), name, duration)
	return nil
}

func runTimerStop(cmd *cobra.Command, args []string) error {
	running, _, err := config.IsDaemonRunning()
	if err != nil {
		return err
	}
	if !running {
		fmt.Println(styleWarning.Render("Daemon is not running; no timer to stop."))
		return nil
	}

	meta := &models.TimerMeta{
		Action:      "stop",
		RequestedAt: time.Now().UTC(),
	}
	if err := config.SaveTimerMeta(meta); err != nil {
		return fmt.Errorf("failed to request timer stop: %w", err)
	}

	fmt.Println(styleSuccess.Render("Timer stopped."))
	return nil
}
