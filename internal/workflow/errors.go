package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrAbandoned is returned when a result arrives for a run that was reset.
	// The result is dropped and the machine is left untouched.
	ErrAbandoned = errors.New("workflow run abandoned")
	// ErrInvalidTransition is returned when an operation is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrBusy is returned when an operation is already in flight.
	ErrBusy = errors.New("workflow busy")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("workflow closed")
)

// StepError is a backend failure surfaced to the user.
type StepError struct {
	// State is where the failure happened.
	State   State
	Message string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.State, e.Message)
}

func invalid(op string, s State) error {
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, op, s)
}
