package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/alkime/intake/internal/tui/style"
)

// globalKeyMap defines key bindings that work in every stage.
type globalKeyMap struct {
	Quit     key.Binding
	Rerecord key.Binding
}

func defaultGlobalKeyMap() globalKeyMap {
	return globalKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "abandon and quit"),
		),
		Rerecord: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "discard and re-record"),
		),
	}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

func renderGlobalKeyHelp() string {
	km := defaultGlobalKeyMap()
	s := renderKeyHelp(km.Rerecord, " ")
	s += renderKeyHelp(km.Quit, "\n")

	return s
}
