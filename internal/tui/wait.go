package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/moodtales/internal/tui/components/labeledspinner"
	"github.com/alkime/moodtales/internal/workflow"
)

// slowBackend is how long a wait may take before the TUI suggests why.
const slowBackend = 45 * time.Second

// waitStep shows a spinner while the backend works on Analyze or Narrate.
type waitStep struct {
	spinner labeledspinner.Model
	// describe fills the subtitle from the step payload.
	describe func(workflow.Step) string
}

func newAnalyzeStep() *waitStep {
	return (&waitStep{
		spinner: labeledspinner.New(
			spinner.Dot,
			"Listening for emotions...",
			"",
			"Longer recordings take a little longer",
		),
		describe: func(s workflow.Step) string {
			if step, ok := s.(workflow.AnalyzeStep); ok && step.ClipURL != "" {
				return "Recording: " + step.ClipURL
			}
			return ""
		},
	}).withSlowNote("Still listening. The first request after a restart loads the models; run `moodtales models load` to do it ahead of time.")
}

func newNarrateStep() *waitStep {
	return (&waitStep{
		spinner: labeledspinner.New(
			spinner.MiniDot,
			"Recording narration and music...",
			"",
			"Both tracks are produced at the same time",
		),
		describe: func(s workflow.Step) string {
			if step, ok := s.(workflow.NarrateStep); ok {
				return step.Story.Preview(120)
			}
			return ""
		},
	}).withSlowNote("Music takes the longest. Press ctrl+n to give up and start over.")
}

func (w *waitStep) withSlowNote(note string) *waitStep {
	w.spinner.SlowNote = note
	w.spinner.SlowAfter = slowBackend
	return w
}

func (w *waitStep) Init() tea.Cmd {
	var cmd tea.Cmd
	w.spinner, cmd = w.spinner.Start(time.Now())

	return cmd
}

func (w *waitStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := teaMsg.(syncMsg); ok {
		w.spinner.Subtitle = w.describe(msg.Step)
		return w, nil
	}

	var cmd tea.Cmd
	w.spinner, cmd = w.spinner.Update(teaMsg)

	return w, cmd
}

func (w *waitStep) View() string {
	return w.spinner.View() + "\n\n" + renderGlobalKeyHelp()
}
