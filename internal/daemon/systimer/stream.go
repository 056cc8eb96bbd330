package systimer

import (
	"bufio"
	"context"
	"log"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/creack/pty"
)

// streamRestartDelay is the fixed backoff after an unexpected stream exit.
const streamRestartDelay = 2 * time.Second

// defaultPredicate filters the system log to the timer subsystem.
const defaultPredicate = `subsystem == "com.apple.timerd"`

// Stream supervises the `log stream` subprocess feeding the bridge. The
// process runs under a pty: the log CLI switches to block buffering when its
// stdout is a pipe, and the bridge needs lines as they happen.
type Stream struct {
	bridge    *Bridge
	predicate string

	malformed int // running count of non-JSON lines, for sampled logging
}

// NewStream creates a supervisor for the given bridge.
func NewStream(bridge *Bridge, predicate string) *Stream {
	if predicate == "" {
		predicate = defaultPredicate
	}
	return &Stream{bridge: bridge, predicate: predicate}
}

// Run keeps the log stream alive until ctx is done. While the stream is down
// the accessibility fallback polls instead; it stops as soon as a stream
// attempt succeeds.
func (s *Stream) Run(ctx context.Context) {
	boff := backoff.WithContext(backoff.NewConstantBackOff(streamRestartDelay), ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[systimer] log stream exited: %v; restarting in %s", err, streamRestartDelay)
		s.bridge.StartPolling()

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

// runOnce starts one log stream subprocess and consumes it until exit.
func (s *Stream) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "log", "stream", "--style", "ndjson", "--predicate", s.predicate)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = ptmx.Close()
		_ = cmd.Wait()
	}()

	// Stream is up; the fallback poller stands down.
	s.bridge.StopPolling()
	log.Printf("[systimer] log stream started (pid %d)", cmd.Process.Pid)

	scanner := bufio.NewScanner(ptmx)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
	for scanner.Scan() {
		s.handleLine(scanner.Bytes())
	}
	return scanner.Err()
}

// handleLine decodes one raw line. Malformed lines are counted and
// sample-logged (first 3, then every 50th) rather than treated as fatal.
func (s *Stream) handleLine(line []byte) {
	if len(line) == 0 {
		return
	}
	ev, err := parseLogLine(line)
	if err != nil {
		s.malformed++
		if s.malformed <= 3 || s.malformed%50 == 0 {
			log.Printf("[systimer] malformed log line (#%d): %v", s.malformed, err)
		}
		return
	}
	if ev == nil {
		return
	}
	s.bridge.HandleEvent(*ev)
}
