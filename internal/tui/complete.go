package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alkime/moodtales/internal/tui/style"
	"github.com/alkime/moodtales/internal/workflow"
)

type completeKeyMap struct {
	Again  key.Binding
	Scroll key.Binding
}

func defaultCompleteKeyMap() completeKeyMap {
	return completeKeyMap{
		Again: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new story"),
		),
		// handled by the viewport; listed for help only
		Scroll: key.NewBinding(
			key.WithKeys("up", "down"),
			key.WithHelp("↑/↓", "scroll"),
		),
	}
}

// completeStep shows the finished story and where to play its audio.
type completeStep struct {
	flow     Flow
	rec      Recorder
	keys     completeKeyMap
	viewport viewport.Model
	step     workflow.CompleteStep
	width    int
	height   int
}

func newCompleteStep(flow Flow, rec Recorder) *completeStep {
	return &completeStep{
		flow:     flow,
		rec:      rec,
		keys:     defaultCompleteKeyMap(),
		viewport: viewport.New(76, 12),
		width:    80,
		height:   24,
	}
}

func (c *completeStep) Init() tea.Cmd {
	return nil
}

func (c *completeStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		c.layout()
		return c, nil

	case syncMsg:
		if step, ok := msg.Step.(workflow.CompleteStep); ok {
			c.step = step
			c.layout()
		}
		return c, nil

	case tea.KeyMsg:
		if key.Matches(msg, c.keys.Again) {
			return c, resetCmd(c.flow, c.rec)
		}
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(teaMsg)

	return c, cmd
}

// layout sizes the viewport to the terminal and rewraps the story.
func (c *completeStep) layout() {
	// header, title, audio lines, warnings and help
	chrome := 12 + len(c.step.Warnings)
	c.viewport.Width = max(c.width-4, 10)
	c.viewport.Height = max(c.height-chrome, 5)
	c.viewport.SetContent(wrapText(c.step.Story.Text, c.viewport.Width-2))
}

func (c *completeStep) View() string {
	var sb strings.Builder

	title := "Your story"
	if dom := c.step.Story.Emotion.Dominant; dom != "" {
		title += " · " + dom.DisplayName()
	}
	sb.WriteString(style.Title.Render(title))
	sb.WriteString("\n\n")

	sb.WriteString(style.Viewport.Render(c.viewport.View()))
	sb.WriteString("\n\n")

	sb.WriteString(renderTrack("Narration", c.step.NarrationURL))
	sb.WriteString(renderTrack("Music", c.step.MusicURL))
	if c.step.ClipURL != "" {
		sb.WriteString(renderTrack("Your recording", c.step.ClipURL))
	}

	for _, w := range c.step.Warnings {
		sb.WriteString(style.Warning.Render("! " + w))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(renderKeyHelp(c.keys.Again, " "))
	sb.WriteString(renderKeyHelp(c.keys.Scroll, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func renderTrack(label, url string) string {
	if url == "" {
		return style.Label.Render(label+": ") + style.Muted.Render("unavailable") + "\n"
	}

	return style.Label.Render(label+": ") + style.Muted.Render(url) + "\n"
}

// wrapText wraps text to width so long lines wrap instead of being
// truncated in the viewport.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	return lipgloss.NewStyle().Width(width).Render(text)
}
