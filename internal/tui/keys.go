package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/alkime/moodtales/internal/tui/style"
)

// KeyMap defines the bindings available on every step.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	NewStory  key.Binding
}

// DefaultKeyMap returns the default global bindings. Quit is ignored while a
// text field has focus; ForceQuit and NewStory always work.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		NewStory: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "start over"),
		),
	}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	return s + strings.Join(suffix, "")
}

func renderGlobalKeyHelp() string {
	km := DefaultKeyMap()
	s := renderKeyHelp(km.Quit, " ")
	s += renderKeyHelp(km.NewStory, " ")
	s += renderKeyHelp(km.ForceQuit, "\n")
	return s
}
