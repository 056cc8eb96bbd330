// Package main is the entry point for the notchlyd daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notchly-app/notchly/internal/config"
	"github.com/notchly-app/notchly/internal/daemon"
	"github.com/notchly-app/notchly/internal/daemon/tray"
)

func main() {
	foreground := flag.Bool("foreground", false, "Run in foreground (no system tray)")
	flag.Parse()

	log.SetPrefix("[notchlyd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatalf("Failed to create global directory: %v", err)
	}

	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon already running (PID %d)", info.PID)
	}

	if *foreground {
		log.Println("Running in foreground mode (no system tray)")
		runForeground()
	} else {
		log.Println("Running in background mode (with system tray)")
		runWithTray()
	}
}

// runForeground runs the daemon without a tray, blocking on signals.
func runForeground() {
	d, err := daemon.New(daemon.Options{})
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		log.Printf("Daemon error: %v", err)
	}

	cancel()
	d.Stop()
	fmt.Println("Daemon stopped")
}

// runWithTray runs the daemon with a menu bar item on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray() {
	d, err := daemon.New(daemon.Options{})
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	onStart := func() {
		go func() {
			if err := d.Run(ctx); err != nil {
				log.Printf("Daemon error: %v", err)
			}
			tray.Quit()
		}()

		// Keep the menu's status lines current.
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					tray.Update()
				}
			}
		}()

		// Handle OS signals — quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			tray.Quit()
		}()
	}

	onExit := func() {
		cancel()
		d.Stop()
		fmt.Println("Daemon stopped")
	}

	state := daemon.NewTrayState(d, tray.Quit)

	// This blocks the main goroutine until tray exits.
	tray.Run(state, onStart, onExit)
}
