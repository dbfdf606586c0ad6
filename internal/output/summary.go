package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	cleanStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	suspiciousStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	instrumentedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	deceptiveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func verdictStyle(v string) lipgloss.Style {
	switch v {
	case "Clean":
		return cleanStyle
	case "Suspicious":
		return suspiciousStyle
	case "Instrumented":
		return instrumentedStyle
	case "Deceptive":
		return deceptiveStyle
	default:
		return lipgloss.NewStyle()
	}
}

// PrintSummary writes a short, colorized human-readable rendering of a
// Report to w: the verdict, the total score, and a per-source breakdown.
func PrintSummary(w io.Writer, report Report) {
	fmt.Fprintf(w, "%s  score=%d\n", verdictStyle(report.Verdict).Render(report.Verdict), report.Score)

	for source, total := range report.SourceTotals {
		fmt.Fprintf(w, "  %s %d\n", dimStyle.Render(source+":"), total)
	}

	for _, c := range report.Contradictions {
		fmt.Fprintf(w, "  %s %s <-> %s: %s\n", dimStyle.Render("contradiction:"), c.SourceA, c.SourceB, c.Description)
	}
}
