package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/creack/pty"
)

// restartDelay is the fixed backoff after an unexpected stream exit.
const restartDelay = 2 * time.Second

// lockPredicate filters the system log to the lock/wake notification posts.
const lockPredicate = `eventMessage CONTAINS "com.apple.screenIsLocked" OR eventMessage CONTAINS "com.apple.screenIsUnlocked" OR eventMessage CONTAINS "screensDidWake" OR eventMessage CONTAINS "applicationDidChangeScreenParameters"`

// StreamSource reads distributed notifications from a predicate-filtered
// `log stream` subprocess, restarted with backoff on exit.
type StreamSource struct {
	events chan Event
}

// NewStreamSource creates the source. Start must be called before Events
// yields anything.
func NewStreamSource() *StreamSource {
	return &StreamSource{events: make(chan Event, 16)}
}

// Events returns the notification channel.
func (s *StreamSource) Events() <-chan Event {
	return s.events
}

// Start supervises the subprocess until ctx is done.
func (s *StreamSource) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *StreamSource) run(ctx context.Context) {
	boff := backoff.WithContext(backoff.NewConstantBackOff(restartDelay), ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[notify] log stream exited: %v; restarting in %s", err, restartDelay)

		wait := boff.NextBackOff()
		if wait == backoff.Stop {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *StreamSource) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "log", "stream", "--style", "ndjson", "--predicate", lockPredicate)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = ptmx.Close()
		_ = cmd.Wait()
	}()

	scanner := bufio.NewScanner(ptmx)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		if ev, ok := classifyLine(scanner.Bytes()); ok {
			select {
			case s.events <- ev:
			default:
				// Drop under backpressure; the coordinator dedupes anyway.
			}
		}
	}
	return scanner.Err()
}

// classifyLine maps one raw log line to a notification event.
func classifyLine(line []byte) (Event, bool) {
	var rec struct {
		EventMessage string `json:"eventMessage"`
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return Event{}, false
	}
	switch {
	case strings.Contains(rec.EventMessage, "com.apple.screenIsLocked"):
		return Event{Type: EventScreenLocked}, true
	case strings.Contains(rec.EventMessage, "com.apple.screenIsUnlocked"):
		return Event{Type: EventScreenUnlocked}, true
	case strings.Contains(rec.EventMessage, "screensDidWake"):
		return Event{Type: EventScreensDidWake}, true
	case strings.Contains(rec.EventMessage, "applicationDidChangeScreenParameters"):
		return Event{Type: EventScreenParamsChanged}, true
	}
	return Event{}, false
}
