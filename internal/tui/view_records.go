package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"jobtrail/internal/record"
	"jobtrail/internal/util"
)

// recordItem wraps a stored record for the list display.
type recordItem struct {
	record.Stored
}

func (r recordItem) FilterValue() string { return r.Subject + " " + r.Sender }
func (r recordItem) Title() string {
	return fmt.Sprintf("%-11s %s", r.Stage, r.Subject)
}
func (r recordItem) Description() string {
	return fmt.Sprintf("%s  %s", util.SenderName(r.Sender), shortDate(r.Stored))
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

func recordsFooter() string {
	return footerStyle.Render("f: get new emails  tab: filter  /: search  enter: details  l: relabel  d: delete  s: stats  o: open  q: quit")
}

func recordsToItems(records []record.Stored) []list.Item {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = recordItem{r}
	}
	return items
}

func shortDate(r record.Stored) string {
	return r.ReceivedAt.Local().Format("Jan 2, 2006")
}
