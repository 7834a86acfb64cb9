package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/alkime/moodtales/internal/audio"
	"github.com/alkime/moodtales/internal/tui/components/waveform"
	"github.com/alkime/moodtales/internal/tui/style"
	"github.com/alkime/moodtales/internal/workflow"
	"github.com/alkime/moodtales/pkg/uictl"
)

// waveformSamples is about 50ms at 16kHz.
const waveformSamples = 800

type recordKeyMap struct {
	Toggle key.Binding
	Text   key.Binding
	Submit key.Binding
	Retry  key.Binding
	Cancel key.Binding
}

func defaultRecordKeyMap() recordKeyMap {
	return recordKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start/stop recording"),
		),
		Text: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "type instead"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "write my story"),
		),
		Retry: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "analyze the same recording again"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back to recording"),
		),
	}
}

// recordStep captures a clip, or a typed prompt in text mode.
type recordStep struct {
	ctx     context.Context
	flow    Flow
	rec     Recorder
	keys    recordKeyMap
	spinner spinner.Model
	wave    waveform.Model
	input   textinput.Model
	texting bool
	// stopping is set while the take is finalised and submitted
	stopping bool
	clipURL  string
}

func newRecordStep(ctx context.Context, flow Flow, rec Recorder) *recordStep {
	s := spinner.New()
	s.Spinner = spinner.Points

	in := textinput.New()
	in.Placeholder = "a lighthouse keeper who befriends a storm..."
	in.CharLimit = 500
	in.Width = 60

	var levels uictl.Levels[int16]
	if rec != nil {
		levels = uictl.LevelsFunc[int16](func() []int16 {
			return rec.ReadSamples(waveformSamples)
		})
	}

	return &recordStep{
		ctx:     ctx,
		flow:    flow,
		rec:     rec,
		keys:    defaultRecordKeyMap(),
		spinner: s,
		wave:    waveform.New(levels, 60, 3),
		input:   in,
	}
}

func (r *recordStep) Init() tea.Cmd {
	r.stopping = false
	return tea.Batch(r.spinner.Tick, r.wave.Init())
}

func (r *recordStep) capturing() bool {
	return r.texting
}

func (r *recordStep) session() audio.Session {
	if r.rec == nil {
		return audio.Session{}
	}

	return r.rec.Session()
}

func (r *recordStep) recording() bool {
	return r.session().Active
}

func (r *recordStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		r.wave = r.wave.SetWidth(min(msg.Width-4, 80))
		r.input.Width = min(msg.Width-6, 80)
		return r, nil

	case syncMsg:
		if step, ok := msg.Step.(workflow.RecordStep); ok {
			r.clipURL = step.ClipURL
		}
		return r, nil

	case opDoneMsg:
		r.stopping = false
		return r, nil

	case tea.KeyMsg:
		if r.texting {
			return r.updateText(msg)
		}
		return r.updateRecording(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return r, cmd

	case waveform.TickMsg:
		r.wave.Live = r.recording()
		var cmd tea.Cmd
		r.wave, cmd = r.wave.Update(msg)
		return r, cmd
	}

	return r, nil
}

func (r *recordStep) updateRecording(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if r.stopping {
		return r, nil
	}

	switch {
	case key.Matches(msg, r.keys.Toggle):
		if r.rec == nil {
			return r, runOp("record", func() error {
				return errors.New("no microphone available, press t to type instead")
			})
		}
		if r.recording() {
			r.stopping = true
			return r, r.stopCmd()
		}
		return r, runOp("record", func() error {
			return r.rec.Start(r.ctx)
		})

	case key.Matches(msg, r.keys.Text):
		if r.recording() {
			return r, nil
		}
		r.texting = true
		return r, r.input.Focus()

	case key.Matches(msg, r.keys.Retry) && r.canRetry():
		r.stopping = true
		clip := r.session().Clip
		return r, runOp("analyze", func() error {
			return r.flow.SubmitClip(r.ctx, clip)
		})
	}

	return r, nil
}

func (r *recordStep) updateText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, r.keys.Cancel):
		r.texting = false
		r.input.Blur()
		return r, nil

	case key.Matches(msg, r.keys.Submit):
		text := strings.TrimSpace(r.input.Value())
		if text == "" {
			return r, nil
		}

		r.texting = false
		r.input.Blur()
		r.input.Reset()

		// typed prompts go straight to the story
		return r, runOp("generate", func() error {
			if err := r.flow.SubmitText(text); err != nil {
				return err
			}
			_, err := r.flow.Generate(r.ctx, "")
			return err
		})
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)

	return r, cmd
}

// stopCmd finalises the take and hands it to the flow.
func (r *recordStep) stopCmd() tea.Cmd {
	return runOp("analyze", func() error {
		clip, err := r.rec.Stop()
		if err != nil {
			return fmt.Errorf("failed to finish recording: %w", err)
		}
		if clip == nil {
			// reset while finalising
			return nil
		}

		return r.flow.SubmitClip(r.ctx, clip)
	})
}

// canRetry reports whether a failed analysis left a clip to resubmit.
func (r *recordStep) canRetry() bool {
	if r.clipURL == "" {
		return false
	}
	sess := r.session()

	return !sess.Active && sess.Clip != nil
}

func (r *recordStep) View() string {
	if r.texting {
		return r.viewText()
	}

	var sb strings.Builder
	sess := r.session()

	switch {
	case r.stopping:
		sb.WriteString(r.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(style.Title.Render("Finishing recording..."))
	case sess.Active:
		sb.WriteString(r.spinner.View())
		sb.WriteString(" ")
		sb.WriteString(style.Title.Render("Recording"))
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(formatTake(sess.Elapsed, sess.Bytes)))
	default:
		sb.WriteString(style.Title.Render("Tell me how you feel"))
		sb.WriteString("\n")
		sb.WriteString(style.Subtitle.Render("Press space and speak; your voice sets the mood of the story."))
	}
	sb.WriteString("\n\n")

	sb.WriteString(r.wave.View())
	sb.WriteString("\n\n")

	if r.clipURL != "" && !sess.Active {
		sb.WriteString(style.Label.Render("Last recording: "))
		sb.WriteString(style.Muted.Render(r.clipURL))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderKeyHelp(r.keys.Toggle, " "))
	if !sess.Active {
		sb.WriteString(renderKeyHelp(r.keys.Text, " "))
	}
	if r.canRetry() {
		sb.WriteString(renderKeyHelp(r.keys.Retry, " "))
	}
	sb.WriteString("\n")
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (r *recordStep) viewText() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("What should the story be about?"))
	sb.WriteString("\n\n")
	sb.WriteString(r.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(renderKeyHelp(r.keys.Submit, " "))
	sb.WriteString(renderKeyHelp(r.keys.Cancel, "\n"))
	sb.WriteString(renderKeyHelp(DefaultKeyMap().ForceQuit, "\n"))

	return sb.String()
}

// formatTake renders elapsed seconds and the PCM size, e.g. "0:12 · 384 kB".
func formatTake(seconds int, size int64) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%d:%02d · %s", int(d.Minutes()), seconds%60, humanize.Bytes(uint64(max(size, 0))))
}
