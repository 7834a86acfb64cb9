// Package labeledspinner provides a spinner with a title, a subtitle and
// the time spent waiting so far.
package labeledspinner

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/moodtales/internal/tui/style"
)

// Model displays a spinner with title, subtitle, and help text.
// The analyze, generate and narrate steps all wait on the backend this way.
type Model struct {
	Spinner  spinner.Model
	Title    string
	Subtitle string
	Help     string
	// SlowNote replaces Help once the wait passes SlowAfter. Zero SlowAfter
	// disables it.
	SlowNote  string
	SlowAfter time.Duration
	started   time.Time
}

// New creates a new labeled spinner with the given configuration.
func New(s spinner.Spinner, title, subtitle, help string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner:  sp,
		Title:    title,
		Subtitle: subtitle,
		Help:     help,
	}
}

// Init returns the initial command for the spinner.
func (ls Model) Init() tea.Cmd {
	return ls.Spinner.Tick
}

// Start resets the elapsed counter to at and starts spinning.
func (ls Model) Start(at time.Time) (Model, tea.Cmd) {
	ls.started = at
	return ls, ls.Spinner.Tick
}

// Elapsed returns the whole seconds since Start, or zero when not started.
func (ls Model) Elapsed(now time.Time) time.Duration {
	if ls.started.IsZero() {
		return 0
	}

	return now.Sub(ls.started).Truncate(time.Second)
}

// Update handles spinner tick messages.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

		return ls, cmd
	}

	return ls, nil
}

// View renders the spinner, the title with the elapsed time and the help
// line.
func (ls Model) View() string {
	return ls.render(time.Now())
}

func (ls Model) render(now time.Time) string {
	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.Title))
	if !ls.started.IsZero() {
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(ls.Elapsed(now).String()))
	}
	sb.WriteString("\n\n")

	if ls.Subtitle != "" {
		sb.WriteString(style.Subtitle.Render(ls.Subtitle))
		sb.WriteString("\n\n")
	}

	if ls.slow(now) {
		sb.WriteString(style.Warning.Render(ls.SlowNote))
	} else {
		sb.WriteString(style.Help.Render(ls.Help))
	}

	return sb.String()
}

func (ls Model) slow(now time.Time) bool {
	return ls.SlowAfter > 0 && ls.SlowNote != "" && ls.Elapsed(now) >= ls.SlowAfter
}
