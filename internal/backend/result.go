package backend

import "errors"

// Result is the envelope every backend operation returns. Callers branch on
// Success; Error carries a user-facing message when Success is false.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok wraps data in a successful envelope.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed envelope with the given message.
func Fail[T any](msg string) Result[T] {
	return Result[T]{Error: msg}
}

// Err returns nil for a successful envelope and the failure message as an
// error otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}

	if r.Error == "" {
		return errors.New("backend request failed")
	}

	return errors.New(r.Error)
}
