// Package notify adapts OS distributed notifications (screen lock/unlock,
// screens-did-wake, screen-parameters-changed) into typed events.
package notify

// EventType identifies one distributed notification kind.
type EventType int

const (
	EventScreenLocked EventType = iota
	EventScreenUnlocked
	EventScreensDidWake
	EventScreenParamsChanged
)

func (t EventType) String() string {
	switch t {
	case EventScreenLocked:
		return "screen-locked"
	case EventScreenUnlocked:
		return "screen-unlocked"
	case EventScreensDidWake:
		return "screens-did-wake"
	case EventScreenParamsChanged:
		return "screen-params-changed"
	}
	return "unknown"
}

// Event is one OS notification redelivered to the coordination layer.
type Event struct {
	Type EventType
}

// Source emits OS notification events. The daemon uses the log-stream
// implementation below; tests inject a channel-backed fake.
type Source interface {
	Events() <-chan Event
}
