// Package phases provides a container that shows one of several step models
// at a time, with a header listing every step.
package phases

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/moodtales/internal/tui/style"
)

// GotoMsg asks the container to switch to the phase at Index.
type GotoMsg struct {
	Index int
}

// Phase is a named step model.
type Phase struct {
	Name string
	mdl  tea.Model
}

func (p Phase) Init() tea.Cmd {
	return p.mdl.Init()
}

func (p Phase) Update(msg tea.Msg) (Phase, tea.Cmd) {
	updatedMdl, cmd := p.mdl.Update(msg)
	p.mdl = updatedMdl
	return p, cmd
}

func (p Phase) View() string {
	return p.mdl.View()
}

func NewPhase(name string, mdl tea.Model) Phase {
	return Phase{
		Name: name,
		mdl:  mdl,
	}
}

// Model holds the phases and the index of the one being shown. Only the
// current phase receives messages.
type Model struct {
	phases []Phase
	curr   int
}

func New(phases []Phase) Model {
	return Model{
		phases: phases,
		curr:   0,
	}
}

func (m Model) currentPhase() Phase {
	return m.phases[m.curr]
}

func (m Model) Init() tea.Cmd {
	return m.currentPhase().Init()
}

// Goto switches to the phase at i and initialises it. Out of range indices
// and the current index are no-ops.
func (m Model) Goto(i int) (Model, tea.Cmd) {
	if i < 0 || i >= len(m.phases) || i == m.curr {
		return m, nil
	}

	m.curr = i

	return m, m.currentPhase().Init()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := teaMsg.(GotoMsg); ok {
		return m.Goto(msg.Index)
	}

	ph, cmd := m.currentPhase().Update(teaMsg)
	m.phases[m.curr] = ph

	return m, cmd
}

func (m Model) View() string {
	return m.currentPhase().View()
}

// Index returns the index of the current phase.
func (m Model) Index() int {
	return m.curr
}

// Current returns the model of the current phase.
func (m Model) Current() tea.Model {
	return m.currentPhase().mdl
}

// CurrentPhaseName returns the name of the current phase.
func (m Model) CurrentPhaseName() string {
	return m.currentPhase().Name
}

// Header renders every phase name in order: finished ones marked done, the
// current one highlighted, later ones muted.
func (m Model) Header() string {
	parts := make([]string, len(m.phases))
	for i, ph := range m.phases {
		switch {
		case i < m.curr:
			parts[i] = style.Success.Render("✓ " + ph.Name)
		case i == m.curr:
			parts[i] = style.Title.Render("● " + ph.Name)
		default:
			parts[i] = style.Muted.Render("○ " + ph.Name)
		}
	}

	return strings.Join(parts, style.Muted.Render(" › "))
}
