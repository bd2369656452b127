package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/tui/components/levelmeter"
	"github.com/alkime/intake/internal/tui/components/stages"
	"github.com/alkime/intake/internal/tui/style"
)

type recordingKeyMap struct {
	Finish key.Binding
}

func defaultRecordingKeyMap() recordingKeyMap {
	return recordingKeyMap{
		Finish: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "finish and transcribe"),
		),
	}
}

// recordingStage shows the live capture: elapsed time, level meter and
// buffer usage. The microphone is already held when this stage appears.
type recordingStage struct {
	coord     *intake.Coordinator
	keys      recordingKeyMap
	controls  RecorderControls
	spinner   spinner.Model
	stopwatch stopwatch.Model
	progress  progress.Model
	meter     levelmeter.Model
}

func newRecordingStage(coord *intake.Coordinator, controls RecorderControls) tea.Model {
	s := spinner.New()
	s.Spinner = spinner.Points

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &recordingStage{
		coord:     coord,
		keys:      defaultRecordingKeyMap(),
		controls:  controls,
		spinner:   s,
		stopwatch: stopwatch.New(),
		progress:  p,
		meter:     levelmeter.New(controls.Levels, 40, 3),
	}
}

func (r *recordingStage) Init() tea.Cmd {
	return tea.Batch(
		r.spinner.Tick,
		r.stopwatch.Reset(),
		r.stopwatch.Start(),
		r.meter.Init(),
	)
}

func (r *recordingStage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := teaMsg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, r.keys.Finish) {
			// Show the transcribing view right away; the upload result
			// re-syncs the container when it lands.
			return r, tea.Batch(
				stages.Activate(intake.StageTranscribing.String()),
				r.finishCmd(),
			)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case levelmeter.TickMsg:
		var cmd tea.Cmd
		r.meter, cmd = r.meter.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := r.progress.Update(msg)
		r.progress = progressModel.(progress.Model) //nolint:forcetypeassert // bubbles library contract
		cmds = append(cmds, cmd)
	}

	var stopwatchCmd tea.Cmd
	r.stopwatch, stopwatchCmd = r.stopwatch.Update(teaMsg)
	if stopwatchCmd != nil {
		cmds = append(cmds, stopwatchCmd)
	}

	return r, tea.Batch(cmds...)
}

func (r *recordingStage) View() string {
	var sb strings.Builder

	sb.WriteString(r.spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render("Recording"))
	sb.WriteString(" ")
	sb.WriteString(style.Subtitle.Render(r.stopwatch.View()))
	sb.WriteString("\n\n")

	sb.WriteString(r.meter.View())
	sb.WriteString("\n\n")

	if r.controls.Buffer != nil {
		current, maxValue := r.controls.Buffer.Cap()
		percent := float64(0)
		if maxValue > 0 {
			percent = float64(current) / float64(maxValue)
		}

		sb.WriteString(r.progress.ViewAs(percent))
		sb.WriteString("\n")
		sb.WriteString(style.Subtitle.Render(formatBytes(current, maxValue)))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderKeyHelp(r.keys.Finish, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

// finishCmd releases the microphone and runs transcription.
func (r *recordingStage) finishCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: r.coord.StopAndTranscribe()}
	}
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(current, maxBytes int64) string {
	currentMB := float64(current) / (1024 * 1024)
	maxMB := float64(maxBytes) / (1024 * 1024)

	if maxBytes == 0 {
		return fmt.Sprintf("%.1f MB / unlimited", currentMB)
	}

	percent := int(float64(current) / float64(maxBytes) * 100)

	return fmt.Sprintf("%.1f MB / %.1f MB (%d%%)", currentMB, maxMB, percent)
}
