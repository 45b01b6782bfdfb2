package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jobtrail/internal/record"
)

var sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).PaddingTop(1)

func statsView(st record.Stats) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Statistics"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Width(16).Render("Total tracked"), st.Total)
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Width(16).Render("Last 7 days"), st.Recent)

	b.WriteString(sectionStyle.Render("By label"))
	b.WriteString("\n")
	if len(st.ByStage) == 0 {
		b.WriteString("  (no records yet)\n")
	}
	for _, sc := range st.ByStage {
		fmt.Fprintf(&b, "  %s %d\n", labelStyle.Width(14).Render(sc.Stage.String()), sc.Count)
	}

	p := st.Pipeline
	b.WriteString(sectionStyle.Render("Pipeline"))
	b.WriteString("\n")
	for _, row := range []struct {
		label string
		value string
	}{
		{"Applications", fmt.Sprint(p.Applications)},
		{"Interviews", fmt.Sprint(p.Interviews)},
		{"Offers", fmt.Sprint(p.Offers)},
		{"Rejections", fmt.Sprint(p.Rejections)},
		{"Response rate", record.FormatRate(p.ResponseRate())},
		{"Offer rate", record.FormatRate(p.OfferRate())},
	} {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Width(14).Render(row.label), row.value)
	}
	return b.String()
}

func statsFooter() string {
	return footerStyle.Render("esc: back  q: quit")
}
