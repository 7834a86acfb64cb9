package workflow

import (
	"fmt"
	"time"
)

// EventKind classifies an Event.
type EventKind int

const (
	// EventTransition is a state change.
	EventTransition EventKind = iota
	// EventError is a failure the user should see.
	EventError
	// EventWarning is a non-fatal problem, e.g. music could not be generated.
	EventWarning
	// EventReset is an explicit reset back to Record.
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventTransition:
		return "transition"
	case EventError:
		return "error"
	case EventWarning:
		return "warning"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is published for every transition and notification.
type Event struct {
	Kind    EventKind
	RunID   string
	From    State
	To      State
	Message string
	At      time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case EventTransition, EventReset:
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.From, e.To)
	default:
		return fmt.Sprintf("%s in %s: %s", e.Kind, e.To, e.Message)
	}
}
