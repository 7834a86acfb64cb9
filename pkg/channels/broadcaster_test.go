package channels_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/pkg/channels"
)

func receiveN[T any](t *testing.T, ch <-chan T, n int) []T {
	t.Helper()

	got := make([]T, 0, n)
	for range n {
		select {
		case v := <-ch:
			got = append(got, v)
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d messages", len(got), n)
		}
	}

	return got
}

func TestBroadcaster(t *testing.T) {
	t.Run("subscribe", func(t *testing.T) {
		t.Run("nil channel", func(t *testing.T) {
			b := channels.NewBroadcaster[int]()
			require.ErrorContains(t, b.Subscribe("ui", nil), "cannot be nil")
			require.ErrorContains(t, b.SubscribeWithTimeout("ui", nil, time.Second), "cannot be nil")
		})

		t.Run("timeout must be positive", func(t *testing.T) {
			b := channels.NewBroadcaster[int]()
			ch := make(chan int, 1)
			require.ErrorContains(t, b.SubscribeWithTimeout("ui", ch, 0), "must be positive")
			require.ErrorContains(t, b.SubscribeWithTimeout("ui", ch, -time.Second), "must be positive")
		})

		t.Run("after run", func(t *testing.T) {
			b := channels.NewBroadcaster[int]()
			require.NoError(t, b.Subscribe("first", make(chan int, 1)))
			_, err := b.Run(t.Context())
			require.NoError(t, err)

			require.ErrorContains(t, b.Subscribe("late", make(chan int, 1)), "already started")
		})
	})

	t.Run("run", func(t *testing.T) {
		t.Run("no subscribers", func(t *testing.T) {
			_, err := channels.NewBroadcaster[int]().Run(t.Context())
			require.ErrorContains(t, err, "no subscribers")
		})

		t.Run("twice", func(t *testing.T) {
			b := channels.NewBroadcaster[int]()
			require.NoError(t, b.Subscribe("ui", make(chan int, 1)))

			_, err := b.Run(t.Context())
			require.NoError(t, err)
			_, err = b.Run(t.Context())
			require.ErrorContains(t, err, "already started")
		})
	})

	t.Run("every subscriber gets every message in order", func(t *testing.T) {
		b := channels.NewBroadcaster[int]()
		ui := make(chan int, 10)
		log := make(chan int, 10)
		require.NoError(t, b.Subscribe("ui", ui))
		require.NoError(t, b.SubscribeWithTimeout("log", log, time.Second))

		in, err := b.Run(t.Context())
		require.NoError(t, err)

		for i := range 5 {
			in <- i
		}

		assert.Equal(t, []int{0, 1, 2, 3, 4}, receiveN(t, ui, 5))
		assert.Equal(t, []int{0, 1, 2, 3, 4}, receiveN(t, log, 5))
	})

	t.Run("a full subscriber does not starve the others", func(t *testing.T) {
		b := channels.NewBroadcaster[string]()
		stuck := make(chan string) // nobody reads
		ready := make(chan string, 10)
		require.NoError(t, b.Subscribe("stuck", stuck))
		require.NoError(t, b.Subscribe("ready", ready))

		ctx, cancel := context.WithCancel(t.Context())
		in, err := b.Run(ctx)
		require.NoError(t, err)

		in <- "a"
		in <- "b"
		assert.Equal(t, []string{"a", "b"}, receiveN(t, ready, 2))

		cancel()
		b.Wait()

		stats := b.Stats()
		require.Len(t, stats, 2)
		assert.Equal(t, channels.SubscriberStats{Name: "stuck", Dropped: 2}, stats[0])
		assert.Equal(t, channels.SubscriberStats{Name: "ready"}, stats[1])
	})

	t.Run("timeout subscriber drops after waiting", func(t *testing.T) {
		b := channels.NewBroadcaster[int]()
		slow := make(chan int)
		require.NoError(t, b.SubscribeWithTimeout("slow", slow, 5*time.Millisecond))

		ctx, cancel := context.WithCancel(t.Context())
		in, err := b.Run(ctx)
		require.NoError(t, err)

		in <- 1
		cancel()
		b.Wait()

		assert.Equal(t, int64(1), b.Stats()[0].Dropped)
	})

	t.Run("closed subscriber goes inactive", func(t *testing.T) {
		b := channels.NewBroadcaster[int]()
		gone := make(chan int, 1)
		close(gone)
		require.NoError(t, b.Subscribe("gone", gone))

		ctx, cancel := context.WithCancel(t.Context())
		in, err := b.Run(ctx)
		require.NoError(t, err)

		in <- 1
		in <- 2
		cancel()
		b.Wait()

		stats := b.Stats()[0]
		assert.True(t, stats.Inactive)
		assert.Equal(t, int64(2), stats.Dropped)
	})

	t.Run("queued messages are drained on cancel", func(t *testing.T) {
		b := channels.NewBroadcaster[int]()
		out := make(chan int, 10)
		require.NoError(t, b.Subscribe("ui", out))

		ctx, cancel := context.WithCancel(t.Context())
		in, err := b.Run(ctx)
		require.NoError(t, err)

		in <- 1
		in <- 2
		cancel()
		b.Wait()

		assert.Equal(t, []int{1, 2}, receiveN(t, out, 2))
	})

	t.Run("input is closed on cancel", func(t *testing.T) {
		b := channels.NewBroadcaster[int]()
		require.NoError(t, b.Subscribe("ui", make(chan int, 1)))

		ctx, cancel := context.WithCancel(t.Context())
		in, err := b.Run(ctx)
		require.NoError(t, err)

		cancel()
		b.Wait()

		assert.ErrorIs(t, channels.SendNonBlock(in, 1), channels.ErrChannelClosed)
	})
}
