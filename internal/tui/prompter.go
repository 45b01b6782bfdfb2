package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// prompter carries the Gmail consent step through the event loop: the
// auth URL arrives in Update as an authURLMsg and the code typed into the
// auth view comes back on codes.
type prompter struct {
	events chan<- tea.Msg
	codes  <-chan string
}

func (p prompter) ShowAuthURL(authURL string) { p.events <- authURLMsg(authURL) }

func (p prompter) Paste(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code := <-p.codes:
		return code, nil
	}
}
