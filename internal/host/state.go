package host

// State is the lifecycle state of the host slot.
type State int

// Host states.
const (
	// StateIdle - no plugin is mounted.
	StateIdle State = iota

	// StateActive - exactly one plugin is mounted.
	StateActive
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// EventType identifies a host event.
type EventType string

// Host events.
const (
	EventLaunched EventType = "launched"
	EventFailed   EventType = "failed"
	EventClosed   EventType = "closed"
	EventUpdated  EventType = "updated"
)
