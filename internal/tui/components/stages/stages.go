// Package stages provides the container that shows one workflow stage
// at a time and switches between them on demand.
package stages

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ActivateMsg tells the container to switch to the named stage. The
// workflow decides which jumps are legal; the container only displays.
type ActivateMsg struct {
	Name string
}

// Activate returns a command that switches to the named stage.
func Activate(name string) tea.Cmd {
	return func() tea.Msg {
		return ActivateMsg{Name: name}
	}
}

type Stage struct {
	Name string
	mdl  tea.Model
}

func (s Stage) Init() tea.Cmd {
	return s.mdl.Init()
}

func (s Stage) Update(msg tea.Msg) (Stage, tea.Cmd) {
	updatedMdl, cmd := s.mdl.Update(msg)
	s.mdl = updatedMdl
	return s, cmd
}

func (s Stage) View() string {
	return s.mdl.View()
}

func NewStage(name string, mdl tea.Model) Stage {
	return Stage{
		Name: name,
		mdl:  mdl,
	}
}

type Model struct {
	stages []Stage
	index  map[string]int
	curr   int
}

func New(stages []Stage) Model {
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		index[s.Name] = i
	}

	return Model{
		stages: stages,
		index:  index,
		curr:   0,
	}
}

func (m Model) current() Stage {
	return m.stages[m.curr]
}

func (m Model) Init() tea.Cmd {
	return m.current().Init()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := teaMsg.(ActivateMsg); ok {
		next, known := m.index[msg.Name]
		if !known || next == m.curr {
			return m, nil
		}
		m.curr = next

		return m, m.current().Init()
	}

	st, cmd := m.current().Update(teaMsg)
	m.stages[m.curr] = st

	return m, cmd
}

func (m Model) View() string {
	return m.current().View()
}

// CurrentStageName returns the name of the active stage.
func (m Model) CurrentStageName() string {
	return m.current().Name
}
