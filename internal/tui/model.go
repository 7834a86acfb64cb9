// Package tui is the terminal front end for the creation flow: record or
// type, review the detected emotions, then read and play the story.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/moodtales/internal/audio"
	"github.com/alkime/moodtales/internal/story"
	"github.com/alkime/moodtales/internal/tui/components/phases"
	"github.com/alkime/moodtales/internal/tui/style"
	"github.com/alkime/moodtales/internal/workflow"
)

// Flow is the creation flow the TUI drives.
type Flow interface {
	Snapshot() workflow.Snapshot
	SubmitClip(ctx context.Context, clip *audio.Clip) error
	SubmitText(text string) error
	Generate(ctx context.Context, prompt string) (story.Story, error)
	Reset()
	Close()
}

// Recorder captures the clip for the record step.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (*audio.Clip, error)
	Reset()
	Session() audio.Session
	ReadSamples(n int) []int16
}

// Config wires the TUI to the flow and the microphone.
type Config struct {
	// Context bounds every backend call made from the TUI.
	Context  context.Context
	Cancel   context.CancelFunc
	Flow     Flow
	Recorder Recorder
	// Events is where the flow publishes transitions; the TUI re-reads the
	// flow snapshot on each one.
	Events <-chan workflow.Event
}

// eventMsg carries one flow event into the update loop.
type eventMsg workflow.Event

// syncMsg hands the step models a fresh snapshot.
type syncMsg workflow.Snapshot

// refreshMsg asks for a snapshot without an event.
type refreshMsg struct{}

// opDoneMsg reports the outcome of a blocking flow or recorder call.
type opDoneMsg struct {
	op  string
	err error
}

// capturer is implemented by steps with a focused text field.
type capturer interface {
	capturing() bool
}

// Model is the root TUI model.
type Model struct {
	config       Config
	keys         KeyMap
	phases       phases.Model
	snap         workflow.Snapshot
	err          error
	quitting     bool
	windowWidth  int
	windowHeight int
}

// New creates the root model with one step per workflow state.
func New(config Config) *Model {
	if config.Context == nil {
		config.Context = context.Background()
	}

	ctx, flow := config.Context, config.Flow

	return &Model{
		config: config,
		keys:   DefaultKeyMap(),
		phases: phases.New([]phases.Phase{
			phases.NewPhase("Record", newRecordStep(ctx, flow, config.Recorder)),
			phases.NewPhase("Analyze", newAnalyzeStep()),
			phases.NewPhase("Generate", newGenerateStep(ctx, flow)),
			phases.NewPhase("Narrate", newNarrateStep()),
			phases.NewPhase("Complete", newCompleteStep(flow, config.Recorder)),
		}),
		windowWidth:  80,
		windowHeight: 24,
	}
}

// Init returns the initial command.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.phases.Init(),
		listen(m.config.Events),
		func() tea.Msg { return refreshMsg{} },
	)
}

// Update handles all messages.
func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ForceQuit):
			return m, m.quit()

		case key.Matches(msg, m.keys.Quit) && !m.capturing():
			return m, m.quit()

		case key.Matches(msg, m.keys.NewStory):
			return m, resetCmd(m.config.Flow, m.config.Recorder)
		}

	case eventMsg:
		return m, tea.Batch(m.sync(), listen(m.config.Events))

	case refreshMsg:
		return m, m.sync()

	case opDoneMsg:
		m.err = nil
		var stepErr *workflow.StepError
		// step errors are already on the snapshot
		if msg.err != nil && !errors.Is(msg.err, workflow.ErrAbandoned) && !errors.As(msg.err, &stepErr) {
			m.err = msg.err
		}

		syncCmd := m.sync()
		updatedPhases, cmd := m.phases.Update(msg)
		m.phases = updatedPhases.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

		return m, tea.Batch(syncCmd, cmd)
	}

	// Delegate to phases container
	updatedPhases, cmd := m.phases.Update(teaMsg)
	m.phases = updatedPhases.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

	return m, cmd
}

// View renders the current UI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(style.Title.Render("MoodTales"))
	sb.WriteString("  ")
	sb.WriteString(m.phases.Header())
	sb.WriteString("\n\n")

	sb.WriteString(m.phases.View())

	if err := m.visibleErr(); err != nil {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render("✗ " + err.Error()))
		sb.WriteString("\n")
	}

	return sb.String()
}

// sync reads the flow snapshot, switches to the step for its state and hands
// the snapshot to that step.
func (m *Model) sync() tea.Cmd {
	m.snap = m.config.Flow.Snapshot()

	var cmds []tea.Cmd
	if idx := int(m.snap.State); idx != m.phases.Index() {
		var cmd tea.Cmd
		m.phases, cmd = m.phases.Goto(idx)
		cmds = append(cmds, cmd, m.deliver(tea.WindowSizeMsg{Width: m.windowWidth, Height: m.windowHeight}))
	}
	cmds = append(cmds, m.deliver(syncMsg(m.snap)))

	return tea.Batch(cmds...)
}

func (m *Model) deliver(msg tea.Msg) tea.Cmd {
	updatedPhases, cmd := m.phases.Update(msg)
	m.phases = updatedPhases.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

	return cmd
}

func (m *Model) visibleErr() error {
	if m.err != nil {
		return m.err
	}

	return m.snap.Err
}

func (m *Model) capturing() bool {
	c, ok := m.phases.Current().(capturer)
	return ok && c.capturing()
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.config.Flow.Close()
	if m.config.Cancel != nil {
		m.config.Cancel()
	}

	return tea.Quit
}

// listen waits for the next flow event. It returns nil once ch is closed.
func listen(ch <-chan workflow.Event) tea.Cmd {
	if ch == nil {
		return nil
	}

	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}

		return eventMsg(ev)
	}
}

// runOp runs fn off the update loop and reports its error as opDoneMsg.
func runOp(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn()}
	}
}

// resetCmd discards the take and the run. It is the only way back to Record
// once a story is under way.
func resetCmd(flow Flow, rec Recorder) tea.Cmd {
	return runOp("reset", func() error {
		if rec != nil {
			rec.Reset()
		}
		flow.Reset()

		return nil
	})
}
