package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/tui/style"
)

const (
	setupFieldSymptoms = iota
	setupFieldTriage
	setupFieldNotes
	setupFieldPatientID
	setupFieldCount
)

type setupKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Cycle  key.Binding
	Record key.Binding
}

func defaultSetupKeyMap() setupKeyMap {
	return setupKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "change triage code"),
		),
		Record: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start recording"),
		),
	}
}

// setupStage collects symptoms, triage code, notes and patient id, then
// hands off to the recorder. All fields may stay empty.
type setupStage struct {
	coord  *intake.Coordinator
	keys   setupKeyMap
	inputs []textinput.Model
	triage int
	focus  int
}

// triageChoices is the cycling order for the triage selector, starting
// with no selection.
var triageChoices = append([]clinical.TriageCode{""}, clinical.AllTriageCodes()...)

func newSetupStage(coord *intake.Coordinator) tea.Model {
	symptoms := textinput.New()
	symptoms.Placeholder = "presenting symptoms"
	symptoms.Focus()

	notes := textinput.New()
	notes.Placeholder = "triage notes"

	patientID := textinput.New()
	patientID.Placeholder = "patient id (optional)"

	return &setupStage{
		coord:  coord,
		keys:   defaultSetupKeyMap(),
		inputs: []textinput.Model{symptoms, notes, patientID},
	}
}

func (s *setupStage) Init() tea.Cmd {
	return textinput.Blink
}

func (s *setupStage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := teaMsg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, s.keys.Next):
			s.setFocus((s.focus + 1) % setupFieldCount)

			return s, nil

		case key.Matches(keyMsg, s.keys.Prev):
			s.setFocus((s.focus + setupFieldCount - 1) % setupFieldCount)

			return s, nil

		case key.Matches(keyMsg, s.keys.Cycle) && s.focus == setupFieldTriage:
			if keyMsg.String() == "left" {
				s.triage = (s.triage + len(triageChoices) - 1) % len(triageChoices)
			} else {
				s.triage = (s.triage + 1) % len(triageChoices)
			}

			return s, nil

		case key.Matches(keyMsg, s.keys.Record):
			return s, s.startRecordingCmd()
		}
	}

	if idx, ok := s.inputIndex(); ok {
		var cmd tea.Cmd
		s.inputs[idx], cmd = s.inputs[idx].Update(teaMsg)

		return s, cmd
	}

	return s, nil
}

func (s *setupStage) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Visit Setup"))
	sb.WriteString("\n\n")

	sb.WriteString(s.fieldLabel(setupFieldSymptoms, "Symptoms"))
	sb.WriteString(s.inputs[0].View())
	sb.WriteString("\n")

	sb.WriteString(s.fieldLabel(setupFieldTriage, "Triage"))
	sb.WriteString(s.triageView())
	sb.WriteString("\n")

	sb.WriteString(s.fieldLabel(setupFieldNotes, "Notes"))
	sb.WriteString(s.inputs[1].View())
	sb.WriteString("\n")

	sb.WriteString(s.fieldLabel(setupFieldPatientID, "Patient"))
	sb.WriteString(s.inputs[2].View())
	sb.WriteString("\n\n")

	sb.WriteString(renderKeyHelp(s.keys.Next, " "))
	sb.WriteString(renderKeyHelp(s.keys.Cycle, " "))
	sb.WriteString(renderKeyHelp(s.keys.Record, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (s *setupStage) fieldLabel(field int, label string) string {
	if s.focus == field {
		return style.Selected.Render(" "+label+" ") + " "
	}

	return style.Label.Render(" "+label+" ") + " "
}

func (s *setupStage) triageView() string {
	code := triageChoices[s.triage]
	if code.IsBlank() {
		return style.Muted.Render("(none)")
	}

	return style.Triage(code).Render(" " + code.String() + " ")
}

// inputIndex maps the focused field to its text input, if it has one.
func (s *setupStage) inputIndex() (int, bool) {
	switch s.focus {
	case setupFieldSymptoms:
		return 0, true
	case setupFieldNotes:
		return 1, true
	case setupFieldPatientID:
		return 2, true
	default:
		return 0, false
	}
}

func (s *setupStage) setFocus(focus int) {
	s.focus = focus

	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	if idx, ok := s.inputIndex(); ok {
		s.inputs[idx].Focus()
	}
}

// startRecordingCmd saves the setup fields and acquires the microphone.
// The container shows the recording stage once the coordinator reports
// the transition.
func (s *setupStage) startRecordingCmd() tea.Cmd {
	s.coord.SetSetup(intake.Setup{
		Symptoms:    s.inputs[0].Value(),
		TriageCode:  triageChoices[s.triage],
		TriageNotes: s.inputs[1].Value(),
		PatientID:   s.inputs[2].Value(),
	})

	return func() tea.Msg {
		return opDoneMsg{err: s.coord.StartRecording()}
	}
}
