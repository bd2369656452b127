// Package stagespinner renders the waiting view shown while a stage's
// backend call is in flight.
package stagespinner

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/tui/style"
)

// Model displays a spinner with title, subtitle and elapsed time. The
// same view serves every transient stage (transcribing, extracting,
// generating).
type Model struct {
	Spinner   spinner.Model
	Title     string
	Subtitle  string
	stopwatch stopwatch.Model
}

// New creates a stage spinner with the given labels.
func New(s spinner.Spinner, title, subtitle string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner:   sp,
		Title:     title,
		Subtitle:  subtitle,
		stopwatch: stopwatch.NewWithInterval(time.Second),
	}
}

// Init starts the spinner and the elapsed-time stopwatch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.stopwatch.Reset(), m.stopwatch.Start())
}

// Update handles spinner and stopwatch ticks.
func (m Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)

		return m, cmd

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		m.stopwatch, cmd = m.stopwatch.Update(msg)

		return m, cmd
	}

	return m, nil
}

// View renders the spinner with elapsed time.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(m.Title))
	sb.WriteString("\n\n")

	sb.WriteString(style.Subtitle.Render(m.Subtitle))
	sb.WriteString("\n\n")

	sb.WriteString(style.Muted.Render("elapsed " + m.stopwatch.View()))

	return sb.String()
}
