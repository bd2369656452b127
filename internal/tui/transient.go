package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/tui/components/stagespinner"
)

// transientStage wraps the stage spinner as a tea.Model for the stages
// container. It renders while a backend call is in flight and handles
// no keys; the in-flight call cannot be triggered twice from here.
type transientStage struct {
	sp stagespinner.Model
}

func newTransientStage(title, subtitle string) tea.Model {
	return &transientStage{
		sp: stagespinner.New(spinner.Dot, title, subtitle),
	}
}

func (t *transientStage) Init() tea.Cmd {
	return t.sp.Init()
}

func (t *transientStage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	t.sp, cmd = t.sp.Update(teaMsg)

	return t, cmd
}

func (t *transientStage) View() string {
	return t.sp.View()
}
