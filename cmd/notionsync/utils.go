package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/openmined/notionsync/internal/sync"
)

var (
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cyanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	yellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	gray       = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	bold       = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(18).Foreground(lipgloss.Color("248"))
)

func printRow(w io.Writer, label string, value any) {
	fmt.Fprintln(w, labelStyle.Render(label), value)
}

func printSummary(w io.Writer, run *sync.Run) {
	s := run.Summary()
	took := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)

	fmt.Fprintln(w, bold.Render("Sync "+run.ID), gray.Render(fmt.Sprintf("(%s, force=%s)", took, run.Force)))
	printRow(w, "Downloaded", greenStyle.Render(humanize.Comma(int64(s.Downloaded))))
	printRow(w, "Uploaded", greenStyle.Render(humanize.Comma(int64(s.Uploaded))))
	printRow(w, "Skipped", gray.Render(humanize.Comma(int64(s.Skipped))))
	printRow(w, "Conflicts", countStyle(s.Conflicts, yellow).Render(humanize.Comma(int64(s.Conflicts))))
	printRow(w, "Failed", countStyle(s.Failed, redStyle).Render(humanize.Comma(int64(s.Failed))))

	for _, c := range run.Collections {
		if c.Err != nil {
			fmt.Fprintln(w, redStyle.Render("  ✗ "+c.Path), gray.Render(c.Err.Error()))
		}
		for _, o := range c.Outcomes {
			if o.Result == sync.ResultFailed && o.Err != nil {
				fmt.Fprintln(w, redStyle.Render("  ✗ "+displayPath(o)), gray.Render(o.Err.Error()))
			}
		}
	}
	for _, p := range run.Conflicts() {
		fmt.Fprintln(w, yellow.Render("  ! "+p.Document.Path), gray.Render(p.ID()))
	}
}

func countStyle(n int, style lipgloss.Style) lipgloss.Style {
	if n == 0 {
		return gray
	}
	return style
}

func displayPath(o sync.Outcome) string {
	if o.Path != "" {
		return o.Path
	}
	return o.RecordID
}

// since renders a time as "3 minutes ago", or "never".
func since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// parseChoice reads one answer of the conflict prompt.
func parseChoice(s string) (sync.Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u", "up", "upload":
		return sync.DirectionUpload, true
	case "d", "down", "download":
		return sync.DirectionDownload, true
	}
	return sync.DirectionNone, false
}
