// Package tray implements the menu bar status item for the daemon.
package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// DaemonState provides read-only access to daemon state for the tray.
type DaemonState interface {
	Version() string
	NextReminder() string // "Standup at 14:30" or ""
	TimerSummary() string // "Tea 2:41" or ""
	IsLocked() bool
	RefreshWeather()
	RequestShutdown()
}

var (
	state  DaemonState
	onExit func()

	mu           sync.Mutex
	reminderItem *systray.MenuItem
	timerItem    *systray.MenuItem
	weatherItem  *systray.MenuItem
	quitItem     *systray.MenuItem
)

// Run starts the status item. This blocks the calling goroutine (must be
// main). onStartFn is called once the tray is ready; launch daemon services
// there. onExitFn is called when the tray exits.
func Run(s DaemonState, onStartFn, onExitFn func()) {
	state = s
	onExit = onExitFn
	systray.Run(func() { onReady(onStartFn) }, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady(onStart func()) {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip("Notchly")

	header := systray.AddMenuItem(fmt.Sprintf("Notchly %s", state.Version()), "")
	header.Disable()

	systray.AddSeparator()

	mu.Lock()
	reminderItem = systray.AddMenuItem("No upcoming reminder", "")
	reminderItem.Disable()
	timerItem = systray.AddMenuItem("No timer running", "")
	timerItem.Disable()
	mu.Unlock()

	systray.AddSeparator()

	weatherItem = systray.AddMenuItem("Refresh Weather", "Fetch current conditions now")
	quitItem = systray.AddMenuItem("Quit", "Shut down the Notchly daemon")

	if onStart != nil {
		onStart()
	}

	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-weatherItem.ClickedCh:
			log.Println("[tray] manual weather refresh")
			go state.RefreshWeather()
		case <-quitItem.ClickedCh:
			state.RequestShutdown()
		}
	}
}

// Update refreshes the status lines from daemon state.
func Update() {
	mu.Lock()
	defer mu.Unlock()
	if reminderItem == nil || timerItem == nil {
		return
	}

	if next := state.NextReminder(); next != "" {
		reminderItem.SetTitle(next)
	} else {
		reminderItem.SetTitle("No upcoming reminder")
	}
	if summary := state.TimerSummary(); summary != "" {
		timerItem.SetTitle(summary)
	} else {
		timerItem.SetTitle("No timer running")
	}

	suffix := ""
	if state.IsLocked() {
		suffix = " (locked)"
	}
	systray.SetTooltip("Notchly" + suffix)
}
