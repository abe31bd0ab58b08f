package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	redStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// Render produces the styled terminal summary for one run.
func Render(s *Summary) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  pvefleet run %s: node %s", s.RunID, s.Node)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n")

	if len(s.Created) > 0 {
		b.WriteString("\n")
		renderSection(&b, "Created", s.Created, greenStyle)
	}
	if len(s.Existing) > 0 {
		b.WriteString("\n")
		renderSection(&b, "Already existed", s.Existing, dimStyle)
	}
	if len(s.Failed) > 0 {
		b.WriteString("\n")
		renderSection(&b, "Failed", s.Failed, redStyle)
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Summary"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "    Requested: %d\n", s.Total())
	fmt.Fprintf(&b, "    Created:   %s\n", greenStyle.Render(fmt.Sprintf("%d", len(s.Created))))
	fmt.Fprintf(&b, "    Existing:  %d\n", len(s.Existing))
	if len(s.Failed) > 0 {
		fmt.Fprintf(&b, "    Failed:    %s\n", redStyle.Render(fmt.Sprintf("%d", len(s.Failed))))
	} else {
		fmt.Fprintf(&b, "    Failed:    0\n")
	}
	fmt.Fprintf(&b, "    Elapsed:   %s\n", s.Elapsed.Round(time.Second))

	return b.String()
}

func renderSection(b *strings.Builder, title string, lines []Line, style lipgloss.Style) {
	b.WriteString(sectionStyle.Render("  " + title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n")

	for _, line := range lines {
		name := style.Render(fmt.Sprintf("%-20s", line.Name))
		switch {
		case line.Detail != "":
			fmt.Fprintf(b, "    %s vmid %-6d %s\n", name, line.VMID, dimStyle.Render(line.Detail))
		case line.Address != "":
			fmt.Fprintf(b, "    %s vmid %-6d %s\n", name, line.VMID, line.Address)
		default:
			fmt.Fprintf(b, "    %s vmid %-6d %s\n", name, line.VMID, dimStyle.Render("dhcp"))
		}
	}
}
