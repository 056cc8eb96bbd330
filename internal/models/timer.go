package models

import "time"

// TimerSource identifies who owns the currently tracked timer.
type TimerSource string

const (
	TimerSourceNone     TimerSource = ""
	TimerSourceManual   TimerSource = "manual"
	TimerSourceExternal TimerSource = "external"
)

// TimerState is the single logical timer exposed to widgets. Only one source
// may be active at a time; a manual start always preempts an external timer.
type TimerState struct {
	Name          string
	TotalDuration time.Duration
	Remaining     time.Duration
	IsPaused      bool
	IsOvertime    bool
	Source        TimerSource
}

// Active reports whether any timer is currently tracked.
func (t TimerState) Active() bool {
	return t.Source != TimerSourceNone
}

// ExternalPhase is the per-identifier lifecycle of a mirrored system timer.
type ExternalPhase string

const (
	PhaseUnknown  ExternalPhase = "unknown"
	PhaseTracking ExternalPhase = "tracking"
	PhaseRunning  ExternalPhase = "running"
	PhasePaused   ExternalPhase = "paused"
	PhaseFired    ExternalPhase = "fired"
)

// ExternalObservation is one partial reading of the mirrored system timer
// from a single signal source (log stream, accessibility poll, or the
// preferences domain). Fields left nil were not observed.
type ExternalObservation struct {
	Identifier string // uppercase hex id from the log stream, if known
	Name       *string
	Total      *time.Duration
	Remaining  *time.Duration
	Paused     *bool
	Fired      bool
	ObservedAt time.Time
}

// TimerMeta mirrors the system timer preferences domain: the configured
// timer's title and duration, written externally to ~/.notchly/timerd.yaml.
// The CLI reuses the same file to request manual timer actions; Action is
// empty for plain metadata updates.
type TimerMeta struct {
	Name            string    `yaml:"name"`
	DurationSeconds float64   `yaml:"duration_seconds"`
	Action          string    `yaml:"action,omitempty"` // "start" | "stop"
	RequestedAt     time.Time `yaml:"requested_at,omitempty"`
}

// Duration returns the configured duration.
func (m TimerMeta) Duration() time.Duration {
	return time.Duration(m.DurationSeconds * float64(time.Second))
}
