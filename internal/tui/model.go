// Package tui is the terminal UI for the intake workflow. Every stage
// transition goes through the workflow coordinator; the UI only renders
// coordinator state and forwards operator intent.
package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/gateway"
	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/tui/components/stages"
	"github.com/alkime/intake/internal/tui/style"
	"github.com/alkime/intake/pkg/uictl"
)

// RecorderControls exposes recorder state to the recording view without
// giving the view the device.
type RecorderControls struct {
	Buffer uictl.CappedDial[int64]
	Levels uictl.Levels[int16]
}

// Downloader fetches the rendered report PDF, used by the completed
// stage. Nil disables download.
type Downloader func(ctx context.Context, handle *gateway.ReportHandle) ([]byte, error)

// Model is the top-level TUI model.
type Model struct {
	coord     *intake.Coordinator
	container tea.Model
	keys      globalKeyMap
	failure   string
}

// New builds the TUI around a workflow coordinator.
func New(coord *intake.Coordinator, controls RecorderControls, download Downloader) Model {
	container := stages.New([]stages.Stage{
		stages.NewStage(intake.StageSetup.String(), newSetupStage(coord)),
		stages.NewStage(intake.StageRecording.String(), newRecordingStage(coord, controls)),
		stages.NewStage(intake.StageTranscribing.String(),
			newTransientStage("Transcribing audio...", "Uploading clip and waiting for the transcript")),
		stages.NewStage(intake.StageEditing.String(), newEditingStage(coord)),
		stages.NewStage(intake.StageExtracting.String(),
			newTransientStage("Extracting clinical data...", "Structuring the transcript into the visit record")),
		stages.NewStage(intake.StageReviewingExtraction.String(), newReviewStage(coord)),
		stages.NewStage(intake.StageGeneratingReport.String(),
			newTransientStage("Generating report...", "Saving edits and rendering the PDF")),
		stages.NewStage(intake.StageCompleted.String(), newCompletedStage(coord, download)),
	})

	return Model{
		coord:     coord,
		container: container,
		keys:      defaultGlobalKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.container.Init()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.coord.Abandon()

			return m, tea.Quit

		case "ctrl+r":
			return m, m.rerecordCmd()
		}

	case opDoneMsg:
		m.failure = ""
		if msg.err != nil && !errors.Is(msg.err, intake.ErrRequestInFlight) {
			m.failure = failureText(m.coord, msg.err)
		}

		return m.syncStage()
	}

	container, cmd := m.container.Update(teaMsg)
	m.container = container

	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Emergency Intake"))
	sb.WriteString("  ")
	sb.WriteString(style.Muted.Render(m.coord.Stage().String()))

	if code := m.coord.Setup().TriageCode; !code.IsBlank() {
		sb.WriteString("  ")
		sb.WriteString(style.Triage(code).Render(" " + code.String() + " "))
	}
	sb.WriteString("\n\n")

	sb.WriteString(m.container.View())
	sb.WriteString("\n")

	if m.failure != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render(m.failure))
		sb.WriteString("\n")
	}

	return sb.String()
}

// syncStage points the container at whatever stage the coordinator
// landed in after the last call.
func (m Model) syncStage() (tea.Model, tea.Cmd) {
	container, cmd := m.container.Update(stages.ActivateMsg{Name: m.coord.Stage().String()})
	m.container = container

	return m, cmd
}

func (m Model) rerecordCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.coord.Rerecord()}
	}
}

// failureText builds the operator-facing failure line: what failed and
// whether entered data survived.
func failureText(coord *intake.Coordinator, err error) string {
	if fail := coord.LastFailure(); fail != nil && fail.Message != "" {
		return fail.Message
	}

	return err.Error()
}
