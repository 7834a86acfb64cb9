package collections_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/pkg/collections"
)

type take struct {
	label   string
	seconds int
}

func TestApply(t *testing.T) {
	t.Run("basic types", func(t *testing.T) {
		lengths := collections.Apply([]string{"joy", "fear", "sadness"}, func(s string) int {
			return len(s)
		})
		require.Equal(t, []int{3, 4, 7}, lengths)
	})

	t.Run("structs keep order", func(t *testing.T) {
		takes := []take{{"first", 3}, {"second", 12}, {"third", 1}}
		labels := collections.Apply(takes, func(tk take) string {
			return tk.label
		})
		require.Equal(t, []string{"first", "second", "third"}, labels)
	})

	t.Run("empty", func(t *testing.T) {
		require.Empty(t, collections.Apply(nil, strings.ToUpper))
	})

	t.Run("variadic", func(t *testing.T) {
		require.Equal(t, []string{"A", "B"}, collections.ApplyVariadic(strings.ToUpper, "a", "b"))
	})
}

func TestFilter(t *testing.T) {
	takes := []take{{"first", 3}, {"second", 12}, {"third", 1}}

	long := collections.Filter(takes, func(tk take) bool { return tk.seconds >= 3 })
	assert.Equal(t, []take{{"first", 3}, {"second", 12}}, long)

	none := collections.Filter(takes, func(take) bool { return false })
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
