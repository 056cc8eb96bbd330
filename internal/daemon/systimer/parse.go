package systimer

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// logRecord is the subset of one structured log-stream line we care about.
type logRecord struct {
	EventMessage string `json:"eventMessage"`
	Subsystem    string `json:"subsystem"`
}

// eventKind classifies one parsed timer log message.
type eventKind int

const (
	eventNone eventKind = iota
	eventStarted
	eventNextChanged
	eventState
	eventStopped
	eventDump
)

// timerEvent is one decoded observation from the log stream.
type timerEvent struct {
	Kind      eventKind
	ID        string // uppercase hex identifier
	StateTok  string // "running" | "paused" | "fired", for eventState
	Remaining *time.Duration
	Duration  *time.Duration
	Entries   []dumpEntry // for eventDump
}

// dumpEntry is one timer inside a full "scheduled timers:" dump.
type dumpEntry struct {
	ID        string
	StateTok  string
	Remaining time.Duration
}

// Message shapes emitted by the timer subsystem.
var (
	startedPattern   = regexp.MustCompile(`started timer:\s*([0-9A-F]{4,})(?:\s+duration=([0-9.]+))?`)
	nextPattern      = regexp.MustCompile(`next timer changed:\s*([0-9A-F]{4,})`)
	statePattern     = regexp.MustCompile(`timer\s+([0-9A-F]{4,})\s+state:\s*(running|paused|fired)(?:\s+remaining=(-?[0-9.]+))?`)
	stoppedPattern   = regexp.MustCompile(`timer\s+([0-9A-F]{4,})\s+stopped`)
	dumpPattern      = regexp.MustCompile(`scheduled timers:\s*(.*)`)
	dumpEntryPattern = regexp.MustCompile(`([0-9A-F]{4,})\((running|paused),\s*(-?[0-9.]+)s?\)`)
)

// parseLogLine decodes one raw line from the log subprocess. Returns nil for
// lines that decode but carry no timer event; an error only for lines that
// are not valid JSON records at all.
func parseLogLine(line []byte) (*timerEvent, error) {
	var rec logRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	ev := parseMessage(rec.EventMessage)
	if ev.Kind == eventNone {
		return nil, nil
	}
	return &ev, nil
}

// parseMessage extracts a timer event from one log message.
func parseMessage(msg string) timerEvent {
	if m := startedPattern.FindStringSubmatch(msg); m != nil {
		ev := timerEvent{Kind: eventStarted, ID: m[1]}
		if m[2] != "" {
			if d, ok := parseSeconds(m[2]); ok {
				ev.Duration = &d
			}
		}
		return ev
	}
	if m := nextPattern.FindStringSubmatch(msg); m != nil {
		return timerEvent{Kind: eventNextChanged, ID: m[1]}
	}
	if m := stoppedPattern.FindStringSubmatch(msg); m != nil {
		return timerEvent{Kind: eventStopped, ID: m[1]}
	}
	if m := statePattern.FindStringSubmatch(msg); m != nil {
		ev := timerEvent{Kind: eventState, ID: m[1], StateTok: m[2]}
		if m[3] != "" {
			if d, ok := parseSeconds(m[3]); ok {
				ev.Remaining = &d
			}
		}
		return ev
	}
	if m := dumpPattern.FindStringSubmatch(msg); m != nil {
		ev := timerEvent{Kind: eventDump}
		for _, em := range dumpEntryPattern.FindAllStringSubmatch(m[1], -1) {
			rem, _ := parseSeconds(em[3])
			ev.Entries = append(ev.Entries, dumpEntry{ID: em[1], StateTok: em[2], Remaining: rem})
		}
		return ev
	}
	return timerEvent{}
}

// parseSeconds converts a fractional-seconds token into a duration.
func parseSeconds(tok string) (time.Duration, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}
