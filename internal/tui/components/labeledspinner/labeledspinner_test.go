package labeledspinner_test

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/alkime/moodtales/internal/tui/components/labeledspinner"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestLabeledSpinner(t *testing.T) {
	m := labeledspinner.New(spinner.Dot, "Title", "Subtitle", "Help")
	t.Run("initial state", func(t *testing.T) {
		assert.Equal(t, "Title", m.Title)
		assert.Equal(t, "Subtitle", m.Subtitle)
		assert.Equal(t, "Help", m.Help)
		assert.Equal(t, spinner.Dot, m.Spinner.Spinner)
	})

	v0 := m.View()
	t.Run("view output", func(t *testing.T) {
		assert.Contains(t, v0, "Title")
		assert.Contains(t, v0, "Subtitle")
		assert.Contains(t, v0, "Help")
		assert.Contains(t, v0, spinner.Dot.Frames[0])
		assert.NotContains(t, v0, "0s", "no elapsed time before Start")
	})

	t.Run("check updates", func(t *testing.T) {
		m, _ = m.Update(spinner.TickMsg{})
		v1 := m.View()
		assert.Contains(t, v1, spinner.Dot.Frames[1])
		m, _ = m.Update(spinner.TickMsg{})
		v2 := m.View()
		assert.Contains(t, v2, spinner.Dot.Frames[2])
	})
}

func TestLabeledSpinner_Elapsed(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := labeledspinner.New(spinner.Dot, "Writing", "", "")
	assert.Zero(t, m.Elapsed(start.Add(time.Minute)))

	m, cmd := m.Start(start)
	assert.NotNil(t, cmd)
	assert.Equal(t, 12*time.Second, m.Elapsed(start.Add(12*time.Second+400*time.Millisecond)))

	m, _ = m.Start(time.Now())
	assert.Contains(t, m.View(), "Writing 0s")
}

func TestLabeledSpinner_SlowNote(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := labeledspinner.New(spinner.Dot, "Listening", "", "usual help")
	m.SlowNote = "the backend may still be loading its models"
	m.SlowAfter = 30 * time.Second
	m, _ = m.Start(start)

	early := m.RenderAt(start.Add(5 * time.Second))
	assert.Contains(t, early, "Listening 5s")
	assert.Contains(t, early, "usual help")
	assert.NotContains(t, early, "loading its models")

	late := m.RenderAt(start.Add(31 * time.Second))
	assert.Contains(t, late, "Listening 31s")
	assert.Contains(t, late, "loading its models")
	assert.NotContains(t, late, "usual help")
}
