// Package cli implements the notchly CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notchly",
	Short: "Lock-screen live activities for your calendar and timers",
	Long: `Notchly keeps reminder and timer live activities on the lock screen.
The daemon watches your calendars and the system timer; this CLI manages
the daemon and your settings.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(versionCmd)
}
