// Package waveform draws live microphone levels while a take is recording.
package waveform

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/moodtales/internal/tui/style"
	"github.com/alkime/moodtales/pkg/uictl"
)

// eighths are the partial block glyphs, empty to full.
var eighths = []rune(" ▁▂▃▄▅▆▇█")

const (
	frameInterval = 50 * time.Millisecond
	// samples at or beyond this are treated as clipped
	clipThreshold = 32000
)

// TickMsg triggers a waveform redraw.
type TickMsg struct{}

// Model renders the latest samples of a Levels control as bars, oldest on
// the left. Each bar is the loudness of its slice of samples.
type Model struct {
	levels uictl.Levels[int16]
	width  int
	height int
	// Live is false between takes; the view then shows a flat baseline
	// instead of whatever the meter last held.
	Live bool
}

// New creates a waveform width columns wide and height rows tall.
func New(levels uictl.Levels[int16], width, height int) Model {
	return Model{
		levels: levels,
		width:  max(1, width),
		height: max(1, height),
		Live:   true,
	}
}

// SetWidth resizes the waveform to fit the terminal.
func (m Model) SetWidth(width int) Model {
	m.width = max(1, width)
	return m
}

// Width returns the number of columns rendered.
func (m Model) Width() int {
	return m.width
}

// Init starts the redraw ticks.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update keeps the redraw ticks going.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, tick()
	}

	return m, nil
}

// View renders the bars, or a baseline when there is nothing to show.
func (m Model) View() string {
	var samples []int16
	if m.levels != nil && m.Live {
		samples = m.levels.Read()
	}
	if len(samples) == 0 {
		return m.baseline()
	}

	heights := columnHeights(samples, m.width, m.height*len(eighths[1:]))

	barStyle := style.Progress
	if clipped(samples) {
		barStyle = style.Warning
	}

	rows := make([]string, m.height)
	for r := range rows {
		floor := (m.height - 1 - r) * len(eighths[1:])

		var sb strings.Builder
		for _, h := range heights {
			sb.WriteRune(cell(h - floor))
		}
		rows[r] = barStyle.Render(sb.String())
	}

	return strings.Join(rows, "\n")
}

func (m Model) baseline() string {
	rows := make([]string, m.height)
	for r := range rows {
		glyph := " "
		if r == m.height-1 {
			glyph = string(eighths[1])
		}
		rows[r] = style.Muted.Render(strings.Repeat(glyph, m.width))
	}

	return strings.Join(rows, "\n")
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// cell picks the glyph for a row given how far the bar reaches above the
// row's floor, in eighths.
func cell(fill int) rune {
	return eighths[min(max(fill, 0), len(eighths)-1)]
}

// columnHeights splits samples into width slices and maps the loudness of
// each to 0..top. With fewer samples than columns, samples are stretched.
func columnHeights(samples []int16, width, top int) []int {
	heights := make([]int, width)
	n := len(samples)

	for c := range heights {
		lo := c * n / width
		hi := max((c+1)*n/width, lo+1)
		heights[c] = loudness(samples[lo:min(hi, n)], top)
	}

	return heights
}

// loudness maps the RMS of samples to 0..top. The square root curve keeps
// quiet speech visible.
func loudness(samples []int16, top int) int {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	rms := math.Sqrt(sum/float64(len(samples))) / math.MaxInt16

	return min(int(math.Sqrt(rms)*float64(top)), top)
}

func clipped(samples []int16) bool {
	for _, s := range samples {
		if s >= clipThreshold || s <= -clipThreshold {
			return true
		}
	}

	return false
}
