package levelmeter

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

//nolint:gochecknoinits // recommended for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type staticLevels struct {
	samples []int16
}

func (s staticLevels) Read() []int16 { return s.samples }

func TestView_Empty(t *testing.T) {
	m := New(staticLevels{}, 10, 2)

	view := m.View()
	lines := strings.Split(view, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "▁", "bottom row shows baseline when silent")
}

func TestView_NilSource(t *testing.T) {
	m := New(nil, 5, 1)
	assert.NotEmpty(t, m.View())
}

func TestView_LoudSignalFillsColumns(t *testing.T) {
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 32000
	}

	m := New(staticLevels{samples: samples}, 10, 1)
	assert.Contains(t, m.View(), "█")
}

func TestView_QuietSignalStillVisible(t *testing.T) {
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 800
	}

	m := New(staticLevels{samples: samples}, 10, 1)
	view := m.View()
	assert.NotContains(t, view, "█")
	assert.True(t, strings.ContainsAny(view, "▁▂▃▄"), "quiet audio renders a partial bar")
}

func TestPeakAmplitude_MinInt16(t *testing.T) {
	assert.Equal(t, int16(32767), peakAmplitude([]int16{-32768}))
}

func TestAmplitudeToLevel(t *testing.T) {
	assert.Equal(t, 0, amplitudeToLevel(0, 8))
	assert.Equal(t, 8, amplitudeToLevel(32767, 8))
}
