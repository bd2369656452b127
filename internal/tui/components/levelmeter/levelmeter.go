// Package levelmeter provides a TUI component for visualizing capture
// amplitude while recording.
package levelmeter

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/tui/style"
	"github.com/alkime/intake/pkg/uictl"
)

// Block characters for amplitude visualization, empty to full.
const blockChars = " ▁▂▃▄▅▆▇█"

// TickMsg triggers a meter redraw.
type TickMsg struct{}

// Model renders recent capture samples as vertical bars, oldest on the
// left. It reads from a Levels control and never owns the device.
type Model struct {
	levels uictl.Levels[int16]
	width  int
	height int
}

// New creates a level meter that renders width columns over height rows.
func New(levels uictl.Levels[int16], width, height int) Model {
	if height < 1 {
		height = 1
	}

	return Model{
		levels: levels,
		width:  width,
		height: height,
	}
}

// Init returns the initial tick command.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles tick messages for animation.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, m.tick()
	}

	return m, nil
}

// View renders the meter.
func (m Model) View() string {
	if m.levels == nil {
		return m.renderEmpty()
	}

	samples := m.levels.Read()
	if len(samples) == 0 {
		return m.renderEmpty()
	}

	return m.renderBars(samples)
}

// tick schedules the next redraw at ~20 FPS.
func (m Model) tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) renderBars(samples []int16) string {
	levels := m.columnLevels(samples)
	runes := []rune(blockChars)

	var sb strings.Builder

	for row := 0; row < m.height; row++ {
		if row > 0 {
			sb.WriteString("\n")
		}

		var rowSB strings.Builder

		for col := 0; col < m.width; col++ {
			rowSB.WriteRune(runes[m.blockIndexForRow(levels[col], row)])
		}

		sb.WriteString(style.Progress.Render(rowSB.String()))
	}

	return sb.String()
}

// columnLevels buckets the samples into width columns and maps each
// bucket's peak amplitude to a 0..height*8 level.
func (m Model) columnLevels(samples []int16) []int {
	levels := make([]int, m.width)
	bucketSize := max(1, len(samples)/m.width)
	maxLevel := m.height * 8

	for col := 0; col < m.width; col++ {
		start := col * bucketSize
		if start >= len(samples) {
			levels[col] = 0

			continue
		}

		end := min(start+bucketSize, len(samples))
		levels[col] = amplitudeToLevel(peakAmplitude(samples[start:end]), maxLevel)
	}

	return levels
}

// blockIndexForRow returns the block character index (0-8) for a column
// level at a row. Row 0 is the top.
func (m Model) blockIndexForRow(level, row int) int {
	baseLevel := (m.height - 1 - row) * 8

	fill := level - baseLevel
	if fill <= 0 {
		return 0
	}
	if fill >= 8 {
		return 8
	}

	return fill
}

func (m Model) renderEmpty() string {
	var sb strings.Builder

	for row := 0; row < m.height; row++ {
		if row > 0 {
			sb.WriteString("\n")
		}

		var rowSB strings.Builder

		for i := 0; i < m.width; i++ {
			if row == m.height-1 {
				rowSB.WriteRune('▁')
			} else {
				rowSB.WriteRune(' ')
			}
		}

		sb.WriteString(style.Muted.Render(rowSB.String()))
	}

	return sb.String()
}

func peakAmplitude(samples []int16) int16 {
	var peak int16

	for _, s := range samples {
		// -32768 has no positive int16 equivalent
		if s == math.MinInt16 {
			return math.MaxInt16
		}

		if s < 0 {
			s = -s
		}

		if s > peak {
			peak = s
		}
	}

	return peak
}

// amplitudeToLevel maps an amplitude to a display level using a square
// root curve so quiet audio stays visible.
func amplitudeToLevel(amp int16, maxLevel int) int {
	if amp == 0 {
		return 0
	}

	normalized := float64(amp) / float64(math.MaxInt16)

	return min(int(math.Sqrt(normalized)*float64(maxLevel)), maxLevel)
}
