package channels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// subscriber is one named destination and how messages reach it.
type subscriber[T any] struct {
	name     string
	ch       chan<- T
	timeout  time.Duration // zero means non-blocking
	inactive atomic.Bool
	dropped  atomic.Int64
}

func (s *subscriber[T]) send(msg T) {
	if s.inactive.Load() {
		s.dropped.Add(1)
		return
	}

	var err error
	if s.timeout > 0 {
		err = SendWithTimeout(s.ch, msg, s.timeout)
	} else {
		err = SendNonBlock(s.ch, msg)
	}
	if err == nil {
		return
	}

	s.dropped.Add(1)
	// a closed channel never comes back
	if errors.Is(err, ErrChannelClosed) {
		s.inactive.Store(true)
	}
}

// Broadcaster copies every message written to its input channel to each
// subscriber. Slow subscribers lose messages instead of holding up the rest;
// Stats reports how many each one lost.
//
// Cancelling the context passed to Run closes the input channel. Messages
// already queued are still delivered before Wait returns.
type Broadcaster[T any] struct {
	subscribers []*subscriber[T]
	started     atomic.Bool
	wg          sync.WaitGroup
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe adds a subscriber that never blocks the broadcast: a message is
// dropped when ch is full. Must be called before Run.
func (f *Broadcaster[T]) Subscribe(name string, ch chan<- T) error {
	return f.add(name, ch, 0)
}

// SubscribeWithTimeout adds a subscriber that may hold up the broadcast for
// at most timeout per message. Must be called before Run.
func (f *Broadcaster[T]) SubscribeWithTimeout(name string, ch chan<- T, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("subscriber %q: timeout must be positive, got %s", name, timeout)
	}

	return f.add(name, ch, timeout)
}

func (f *Broadcaster[T]) add(name string, ch chan<- T, timeout time.Duration) error {
	if ch == nil {
		return fmt.Errorf("subscriber %q: channel cannot be nil", name)
	}
	if f.started.Load() {
		return fmt.Errorf("subscriber %q: broadcaster already started", name)
	}

	f.subscribers = append(f.subscribers, &subscriber[T]{
		name:    name,
		ch:      ch,
		timeout: timeout,
	})

	return nil
}

// Run starts broadcasting and returns the input channel. The channel belongs
// to the Broadcaster and is closed once ctx is done.
func (f *Broadcaster[T]) Run(ctx context.Context) (chan<- T, error) {
	if len(f.subscribers) == 0 {
		return nil, errors.New("no subscribers available")
	}
	if !f.started.CompareAndSwap(false, true) {
		return nil, errors.New("broadcaster already started")
	}

	input := make(chan T, len(f.subscribers)*8)

	f.wg.Go(func() {
		for msg := range input {
			for _, s := range f.subscribers {
				s.send(msg)
			}
		}
	})

	go func() {
		<-ctx.Done()
		close(input)
	}()

	return input, nil
}

// Wait blocks until the input channel is closed and drained.
func (f *Broadcaster[T]) Wait() {
	f.wg.Wait()
}

// SubscriberStats is the delivery record of one subscriber.
type SubscriberStats struct {
	Name     string
	Dropped  int64
	Inactive bool
}

// Stats returns one entry per subscriber in subscription order.
func (f *Broadcaster[T]) Stats() []SubscriberStats {
	stats := make([]SubscriberStats, 0, len(f.subscribers))
	for _, s := range f.subscribers {
		stats = append(stats, SubscriberStats{
			Name:     s.name,
			Dropped:  s.dropped.Load(),
			Inactive: s.inactive.Load(),
		})
	}

	return stats
}
