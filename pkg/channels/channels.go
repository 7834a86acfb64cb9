// Package channels has small helpers for sending on channels that may be
// full or closed, and a Broadcaster built on them.
package channels

import (
	"errors"
)

var (
	// ErrChannelClosed means the receiver closed the channel.
	ErrChannelClosed = errors.New("channel closed")
	// ErrChannelTimeout means the receiver did not take the message in time.
	ErrChannelTimeout = errors.New("send timeout")
	// ErrChannelFull means the channel had no room and the send gave up.
	ErrChannelFull = errors.New("channel full")
)
