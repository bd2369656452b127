package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/tui/components/stages"
	"github.com/alkime/intake/internal/tui/style"
)

type reviewKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Edit     key.Binding
	Cancel   key.Binding
	Back     key.Binding
	Generate key.Binding
}

func defaultReviewKeyMap() reviewKeyMap {
	return reviewKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓", "select field"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down", "next field"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit field / save edit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
		Back: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "back to transcript"),
		),
		Generate: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "save and generate report"),
		),
	}
}

// reviewStage shows the extracted clinical record field by field for
// operator review. Every field is editable; report generation persists
// the edits first.
type reviewStage struct {
	coord   *intake.Coordinator
	keys    reviewKeyMap
	fields  []string
	cursor  int
	editing bool
	input   textinput.Model
	editErr string
}

func newReviewStage(coord *intake.Coordinator) tea.Model {
	input := textinput.New()
	input.CharLimit = 0

	return &reviewStage{
		coord:  coord,
		keys:   defaultReviewKeyMap(),
		fields: clinical.FieldNames(),
		input:  input,
	}
}

func (r *reviewStage) Init() tea.Cmd {
	r.editing = false
	r.editErr = ""

	return nil
}

func (r *reviewStage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := teaMsg.(tea.KeyMsg)
	if !ok {
		if r.editing {
			var cmd tea.Cmd
			r.input, cmd = r.input.Update(teaMsg)

			return r, cmd
		}

		return r, nil
	}

	if r.editing {
		return r.updateEditing(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, r.keys.Up):
		if r.cursor > 0 {
			r.cursor--
		}

	case key.Matches(keyMsg, r.keys.Down):
		if r.cursor < len(r.fields)-1 {
			r.cursor++
		}

	case key.Matches(keyMsg, r.keys.Edit):
		r.beginEdit()

		return r, textinput.Blink

	case key.Matches(keyMsg, r.keys.Back):
		if err := r.coord.RewindTo(intake.StageEditing); err != nil {
			r.editErr = err.Error()

			return r, nil
		}

		return r, stages.Activate(intake.StageEditing.String())

	case key.Matches(keyMsg, r.keys.Generate):
		return r, tea.Batch(
			stages.Activate(intake.StageGeneratingReport.String()),
			r.generateCmd(),
		)
	}

	return r, nil
}

func (r *reviewStage) updateEditing(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, r.keys.Edit):
		if err := r.coord.SetRecordField(r.fields[r.cursor], r.input.Value()); err != nil {
			r.editErr = err.Error()

			return r, nil
		}
		r.editing = false
		r.editErr = ""

		return r, nil

	case key.Matches(keyMsg, r.keys.Cancel):
		r.editing = false
		r.editErr = ""

		return r, nil
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(keyMsg)

	return r, cmd
}

func (r *reviewStage) beginEdit() {
	record := r.coord.Record()
	if record == nil {
		return
	}

	value, err := record.Get(r.fields[r.cursor])
	if err != nil {
		r.editErr = err.Error()

		return
	}

	r.input.SetValue(value)
	r.input.CursorEnd()
	r.input.Focus()
	r.editing = true
	r.editErr = ""
}

func (r *reviewStage) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Clinical Data Review"))
	sb.WriteString("\n\n")

	if degraded, warnings := r.coord.DegradedExtraction(); degraded {
		sb.WriteString(style.Warning.Render("⚠ degraded extraction, review every field"))
		sb.WriteString("\n")
		for _, w := range warnings {
			sb.WriteString(style.Warning.Render("  " + w))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	for _, verr := range r.coord.ValidationErrors() {
		sb.WriteString(style.Muted.Render("• " + verr))
		sb.WriteString("\n")
	}

	record := r.coord.Record()
	if record == nil {
		sb.WriteString(style.Error.Render("no clinical record"))
		sb.WriteString("\n")

		return sb.String()
	}

	for i, name := range r.fields {
		label := strings.ReplaceAll(name, "_", " ")

		if i == r.cursor && r.editing {
			sb.WriteString(style.Selected.Render(" " + label + " "))
			sb.WriteString(" ")
			sb.WriteString(r.input.View())
			sb.WriteString("\n")

			continue
		}

		value, _ := record.Get(name)
		if i == r.cursor {
			sb.WriteString(style.Selected.Render(" " + label + " "))
		} else {
			sb.WriteString(style.Label.Render(" " + label + " "))
		}
		sb.WriteString(" ")

		if name == clinical.FieldTriageCode && value != "" {
			sb.WriteString(style.Triage(clinical.TriageCode(value)).Render(" " + value + " "))
		} else {
			sb.WriteString(value)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if r.editErr != "" {
		sb.WriteString(style.Error.Render(r.editErr))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderKeyHelp(r.keys.Up, " "))
	sb.WriteString(renderKeyHelp(r.keys.Edit, " "))
	sb.WriteString(renderKeyHelp(r.keys.Back, " "))
	sb.WriteString(renderKeyHelp(r.keys.Generate, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

// generateCmd persists the reviewed record and renders the report.
func (r *reviewStage) generateCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: r.coord.GenerateReport()}
	}
}
