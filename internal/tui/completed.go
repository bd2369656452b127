package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/intake/internal/intake"
	"github.com/alkime/intake/internal/tui/components/stages"
	"github.com/alkime/intake/internal/tui/style"
)

type completedKeyMap struct {
	Download key.Binding
	Review   key.Binding
}

func defaultCompletedKeyMap() completedKeyMap {
	return completedKeyMap{
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download report PDF"),
		),
		Review: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "back to clinical data"),
		),
	}
}

// completedStage shows the finished visit: the report handle and where
// the PDF was saved.
type completedStage struct {
	coord    *intake.Coordinator
	keys     completedKeyMap
	download Downloader
	savedTo  string
	saveErr  string
}

func newCompletedStage(coord *intake.Coordinator, download Downloader) tea.Model {
	return &completedStage{
		coord:    coord,
		keys:     defaultCompletedKeyMap(),
		download: download,
	}
}

func (c *completedStage) Init() tea.Cmd {
	return nil
}

func (c *completedStage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, c.keys.Download):
			if c.download == nil {
				c.saveErr = "download not available"

				return c, nil
			}

			return c, c.downloadCmd()

		case key.Matches(msg, c.keys.Review):
			if err := c.coord.RewindTo(intake.StageReviewingExtraction); err != nil {
				c.saveErr = err.Error()

				return c, nil
			}

			return c, stages.Activate(intake.StageReviewingExtraction.String())
		}

	case downloadDoneMsg:
		if msg.err != nil {
			c.saveErr = msg.err.Error()
		} else {
			c.savedTo = msg.path
			c.saveErr = ""
		}

		return c, nil
	}

	return c, nil
}

func (c *completedStage) View() string {
	var sb strings.Builder

	sb.WriteString(style.Success.Render("✓ Visit complete"))
	sb.WriteString("\n\n")

	handle := c.coord.Report()
	if handle != nil {
		sb.WriteString(style.Label.Render("Report: "))
		sb.WriteString(handle.ReportID)
		sb.WriteString("\n")
		sb.WriteString(style.Muted.Render(handle.DownloadURL))
		sb.WriteString("\n\n")
	}

	if c.savedTo != "" {
		sb.WriteString(style.Success.Render("Saved: " + c.savedTo))
		sb.WriteString("\n\n")
	}
	if c.saveErr != "" {
		sb.WriteString(style.Error.Render(c.saveErr))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderKeyHelp(c.keys.Download, " "))
	sb.WriteString(renderKeyHelp(c.keys.Review, "\n"))
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func (c *completedStage) downloadCmd() tea.Cmd {
	handle := c.coord.Report()

	return func() tea.Msg {
		if handle == nil {
			return downloadDoneMsg{err: fmt.Errorf("no report to download")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		pdf, err := c.download(ctx, handle)
		if err != nil {
			return downloadDoneMsg{err: err}
		}

		path := "visit-report-" + handle.ReportID + ".pdf"
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return downloadDoneMsg{err: err}
		}

		return downloadDoneMsg{path: path}
	}
}
