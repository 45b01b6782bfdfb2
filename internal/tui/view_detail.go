package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"jobtrail/internal/record"
	"jobtrail/internal/util"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	PaddingBottom(1)

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)

func detailView(r record.Stored) string {
	rows := [][2]string{
		{"From", r.Sender},
		{"Address", util.SenderAddress(r.Sender)},
		{"Received", r.ReceivedAt.Local().Format("Mon, 2 Jan 2006 15:04")},
		{"Stage", r.Stage.String()},
		{"ID", r.ID},
	}
	if r.MessageID != "" {
		rows = append(rows, [2]string{"Gmail", r.MessageID})
	}
	s := headerStyle.Render(r.Subject) + "\n"
	for _, row := range rows {
		s += fmt.Sprintf("%s %s\n", labelStyle.Render(row[0]), row[1])
	}
	return s
}

func detailFooter(r record.Stored) string {
	keys := "l: relabel  d: delete  esc: back  q: quit"
	if r.MessageID != "" {
		keys = "o: open in gmail  " + keys
	}
	return footerStyle.Render(keys)
}
