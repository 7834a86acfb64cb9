package audio

import (
	"errors"
	"fmt"
)

// ErrNoAudio is returned by Stop when the take captured no samples.
var ErrNoAudio = errors.New("no audio captured")

// PermissionError reports that the microphone could not be acquired, either
// because access was denied or because no input device exists.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}
