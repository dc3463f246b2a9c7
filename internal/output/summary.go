package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"pycycles/internal/cycles"
)

var (
	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// WriteSummary prints the one-line result, styled by outcome.
func WriteSummary(w io.Writer, report *cycles.Report) {
	if len(report.Cycles) == 0 {
		fmt.Fprintln(w, successStyle.Render(report.Summary()))
		return
	}
	fmt.Fprintln(w, cycleStyle.Render(report.Summary()))
}

// WriteCycleListing prints every cycle as "N: [a, b, c]", the verbose view.
func WriteCycleListing(w io.Writer, report *cycles.Report) {
	for i, cycle := range report.Cycles {
		fmt.Fprintf(w, "%3d: %s\n", i+1, cycle.String())
	}
	if !report.Complete {
		fmt.Fprintln(w, statusStyle.Render("analysis incomplete: cycle list may be missing entries"))
	}
}
