package channels_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/pkg/channels"
)

func TestSendNonBlock(t *testing.T) {
	tests := []struct {
		name string
		ch   func() chan int
		want error
	}{
		{"room in buffer", func() chan int { return make(chan int, 1) }, nil},
		{"buffer full", func() chan int {
			ch := make(chan int, 1)
			ch <- 1
			return ch
		}, channels.ErrChannelFull},
		{"unbuffered without receiver", func() chan int { return make(chan int) }, channels.ErrChannelFull},
		{"closed", func() chan int {
			ch := make(chan int, 1)
			close(ch)
			return ch
		}, channels.ErrChannelClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := channels.SendNonBlock(tt.ch(), 42)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("closed channel keeps its buffered data", func(t *testing.T) {
		ch := make(chan int, 2)
		ch <- 1
		close(ch)
		require.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelClosed)
		assert.Equal(t, 1, <-ch)
	})
}

func TestSendWithTimeout(t *testing.T) {
	t.Run("delivered to a waiting receiver", func(t *testing.T) {
		ch := make(chan int)
		got := make(chan int, 1)
		go func() { got <- <-ch }()

		require.NoError(t, channels.SendWithTimeout(ch, 42, time.Second))
		assert.Equal(t, 42, <-got)
	})

	t.Run("times out when nobody reads", func(t *testing.T) {
		start := time.Now()
		err := channels.SendWithTimeout(make(chan int), 42, 10*time.Millisecond)
		assert.ErrorIs(t, err, channels.ErrChannelTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("closed", func(t *testing.T) {
		ch := make(chan int)
		close(ch)
		assert.ErrorIs(t, channels.SendWithTimeout(ch, 42, time.Second), channels.ErrChannelClosed)
	})
}
