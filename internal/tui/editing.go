package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/tui/components/stages"
	"github.com/alkime/intake/internal/tui/style"
)

type editingKeyMap struct {
	Extract key.Binding
}

func defaultEditingKeyMap() editingKeyMap {
	return editingKeyMap{
		Extract: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "done editing, extract clinical data"),
		),
	}
}

// editingStage lets the operator correct the transcript before
// extraction. The transcript can be reshaped freely but never cleared.
type editingStage struct {
	coord    *intake.Coordinator
	keys     editingKeyMap
	textarea textarea.Model
	editErr  string
}

func newEditingStage(coord *intake.Coordinator) tea.Model {
	ta := textarea.New()
	ta.Placeholder = "transcript"
	ta.SetWidth(76)
	ta.SetHeight(14)
	ta.CharLimit = 0

	return &editingStage{
		coord:    coord,
		keys:     defaultEditingKeyMap(),
		textarea: ta,
	}
}

// Init reloads the transcript every time the stage becomes active, so a
// rewind from review shows the text extraction actually saw.
func (e *editingStage) Init() tea.Cmd {
	e.textarea.SetValue(e.coord.Transcript())
	e.editErr = ""

	return tea.Batch(textarea.Blink, e.textarea.Focus())
}

func (e *editingStage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := teaMsg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, e.keys.Extract) {
			if err := e.coord.EditTranscript(e.textarea.Value()); err != nil {
				e.editErr = err.Error()

				return e, nil
			}
			e.editErr = ""

			return e, tea.Batch(
				stages.Activate(intake.StageExtracting.String()),
				e.extractCmd(),
			)
		}
	}

	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(teaMsg)

	return e, cmd
}

func (e *editingStage) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Transcript"))
	sb.WriteString("\n\n")

	sb.WriteString(style.Viewport.Render(e.textarea.View()))
	sb.WriteString("\n")

	if e.editErr != "" {
		sb.WriteString(style.Error.Render(e.editErr))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(renderKeyHelp(e.keys.Extract, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (e *editingStage) extractCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: e.coord.Extract()}
	}
}
