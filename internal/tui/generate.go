package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/tui/components/labeledspinner"
	"github.com/alkime/moodtales/internal/tui/style"
	"github.com/alkime/moodtales/internal/workflow"
	"github.com/alkime/moodtales/pkg/collections"
)

type generateKeyMap struct {
	Generate key.Binding
}

func defaultGenerateKeyMap() generateKeyMap {
	return generateKeyMap{
		Generate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "write the story"),
		),
	}
}

// generateStep shows the detected emotions and takes an optional prompt.
type generateStep struct {
	ctx     context.Context
	flow    Flow
	keys    generateKeyMap
	input   textinput.Model
	spinner labeledspinner.Model
	step    workflow.GenerateStep
	pending bool
	width   int
}

func newGenerateStep(ctx context.Context, flow Flow) *generateStep {
	in := textinput.New()
	in.Placeholder = "optional: steer the story (a dragon, a quiet morning...)"
	in.CharLimit = 500
	in.Width = 60

	return &generateStep{
		ctx:   ctx,
		flow:  flow,
		keys:  defaultGenerateKeyMap(),
		input: in,
		spinner: labeledspinner.New(
			spinner.Dot,
			"Writing your story...",
			"",
			"",
		),
		width: 80,
	}
}

func (g *generateStep) Init() tea.Cmd {
	g.pending = false
	g.input.Reset()

	return g.input.Focus()
}

func (g *generateStep) capturing() bool {
	return !g.pending
}

func (g *generateStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.input.Width = min(msg.Width-6, 80)
		return g, nil

	case syncMsg:
		step, ok := msg.Step.(workflow.GenerateStep)
		if !ok {
			return g, nil
		}
		g.step = step
		// a typed prompt comes along from the record step
		if g.input.Value() == "" && step.Prompt != "" {
			g.input.SetValue(step.Prompt)
		}
		// the record step starts generation itself for typed prompts
		if msg.Busy && !g.pending {
			g.pending = true
			g.input.Blur()
			var cmd tea.Cmd
			g.spinner, cmd = g.spinner.Start(time.Now())
			return g, cmd
		}
		return g, nil

	case opDoneMsg:
		g.pending = false
		return g, g.input.Focus()

	case tea.KeyMsg:
		if g.pending {
			return g, nil
		}
		if key.Matches(msg, g.keys.Generate) {
			return g, g.generate()
		}

		var cmd tea.Cmd
		g.input, cmd = g.input.Update(msg)
		return g, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		g.spinner, cmd = g.spinner.Update(msg)
		return g, cmd
	}

	return g, nil
}

func (g *generateStep) generate() tea.Cmd {
	g.pending = true
	g.input.Blur()

	prompt := g.input.Value()
	var spin tea.Cmd
	g.spinner, spin = g.spinner.Start(time.Now())

	return tea.Batch(spin, runOp("generate", func() error {
		_, err := g.flow.Generate(g.ctx, prompt)
		return err
	}))
}

func (g *generateStep) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("How you sound"))
	sb.WriteString("\n\n")
	sb.WriteString(renderBadges(g.step.Observations, g.width))
	sb.WriteString("\n")

	if g.step.Transcript != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Label.Render("You said: "))
		sb.WriteString(style.Muted.Render(g.step.Transcript))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if g.pending {
		sb.WriteString(g.spinner.View())
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(g.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(renderKeyHelp(g.keys.Generate, "\n"))
	sb.WriteString(renderKeyHelp(DefaultKeyMap().NewStory, " "))
	sb.WriteString(renderKeyHelp(DefaultKeyMap().ForceQuit, "\n"))

	return sb.String()
}

// renderBadges draws one chip per observation with the dominant category
// highlighted, wrapped to width.
func renderBadges(observations []emotion.Observation, width int) string {
	agg, err := emotion.Aggregate(observations)
	if err != nil {
		return style.Muted.Render("no emotions detected")
	}

	badges := collections.Apply(observations, func(o emotion.Observation) string {
		label := fmt.Sprintf("%s %d%%", o.Category.DisplayName(), int(o.Intensity*100+0.5))
		if o.Category == agg.Dominant {
			return style.Dominant.Render(label)
		}
		return style.Badge.Render(label)
	})

	var (
		lines   []string
		current []string
		used    int
	)
	for _, b := range badges {
		w := lipgloss.Width(b) + 1
		if used+w > width && len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current, used = nil, 0
		}
		current = append(current, b)
		used += w
	}
	lines = append(lines, strings.Join(current, " "))

	summary := fmt.Sprintf("mostly %s, intensity %.0f%%, confidence %.0f%%",
		agg.Dominant.DisplayName(), agg.Intensity*100, agg.Confidence*100)

	return strings.Join(lines, "\n") + "\n" + style.Subtitle.Render(summary)
}
