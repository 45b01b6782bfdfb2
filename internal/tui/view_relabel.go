package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jobtrail/internal/record"
	"jobtrail/internal/taxonomy"
)

var (
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

func relabelView(r record.Stored, cursor int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Relabel: " + r.Subject))
	b.WriteString("\n")
	for i, st := range taxonomy.AllStages() {
		line := "  " + st.String()
		if i == cursor {
			line = cursorStyle.Render("> " + st.String())
		}
		if st == r.Stage {
			line += currentStyle.Render("  (current)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func relabelFooter() string {
	return footerStyle.Render("j/k: move  enter: apply  esc: cancel")
}

func confirmDeleteView(r record.Stored) string {
	return warnStyle.Render("Delete this record from the tracker?") + "\n\n" +
		r.Subject + "\n" + currentStyle.Render(r.Sender) + "\n\n" +
		"The email itself stays in Gmail."
}

func confirmFooter() string {
	return footerStyle.Render("y: delete  n/esc: cancel")
}
