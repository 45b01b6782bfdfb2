package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"jobtrail/internal/ingest"
	"jobtrail/internal/mailbox/gmail"
	"jobtrail/internal/record"
	"jobtrail/internal/service"
	"jobtrail/internal/taxonomy"
)

type viewState int

const (
	viewRecords       viewState = iota // main records list
	viewAuth                           // waiting for Gmail consent
	viewDetail                         // one record
	viewRelabel                        // stage picker
	viewConfirmDelete                  // delete confirmation
	viewStats                          // statistics pane
)

// FetchFunc runs one fetch-and-ingest pass. It may need Gmail consent, which
// it requests through p.
type FetchFunc func(ctx context.Context, p gmail.Prompter) (ingest.Report, error)

// OpenFunc opens a URL in the user's browser.
type OpenFunc func(url string) error

// filters is the tab cycle: every stage, then each stage on its own.
var filters = func() []string {
	out := []string{"all"}
	for _, st := range taxonomy.AllStages() {
		out = append(out, st.String())
	}
	return out
}()

type AppModel struct {
	// Core state
	tracker *service.Tracker
	fetch   FetchFunc
	open    OpenFunc
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	Err     error
	status  string
	loaded  bool

	// Fetch and auth flow
	fetching    bool
	cancelFetch context.CancelFunc
	events      chan tea.Msg
	codes       chan string
	textInput   textinput.Model
	authURL     string

	// View state machine
	view          viewState
	back          viewState
	filter        int
	search        string
	searching     bool
	searchInput   textinput.Model
	selected      *record.Stored
	relabelCursor int
	stats         record.Stats

	recordsList list.Model

	// Layout
	width, height int
}

func NewAppModel(tracker *service.Tracker, fetch FetchFunc, open OpenFunc, logger *zap.Logger) AppModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if open == nil {
		open = gmail.OpenBrowser
	}
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = "Paste auth code or redirect URL here"

	si := textinput.New()
	si.Placeholder = "subject or sender"
	si.Prompt = "/ "

	rl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	rl.SetFilteringEnabled(false)
	rl.SetShowHelp(false)
	rl.Title = "Job emails"

	return AppModel{
		tracker:     tracker,
		fetch:       fetch,
		open:        open,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		status:      "Loading...",
		view:        viewRecords,
		events:      make(chan tea.Msg),
		codes:       make(chan string, 1),
		textInput:   ti,
		searchInput: si,
		recordsList: rl,
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadRecordsCmd(), textinput.Blink)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recordsList.SetSize(msg.Width, msg.Height-4) // room for footer
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case recordsLoadedMsg:
		if msg.err != nil {
			if !m.loaded {
				m.Err = msg.err
				return m, m.quit()
			}
			m.status = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}
		if !m.loaded {
			m.status = ""
		}
		m.loaded = true
		m.recordsList.SetItems(recordsToItems(msg.records))
		m.recordsList.Title = m.listTitle(len(msg.records))
		return m, nil

	case authURLMsg:
		m.authURL = string(msg)
		m.view = viewAuth
		m.textInput.Focus()
		m.status = "Waiting for Gmail authorization..."
		return m, waitForEvent(m.events)

	case fetchDoneMsg:
		m.fetching = false
		m.cancelFetch = nil
		if m.view == viewAuth {
			m.view = viewRecords
			m.textInput.Blur()
		}
		if msg.err != nil {
			m.logger.Error("Fetch failed", zap.Error(msg.err))
			m.status = fmt.Sprintf("Fetch failed: %v", msg.err)
			return m, nil
		}
		m.status = msg.report.Summary()
		return m, tea.Batch(m.loadRecordsCmd(), clearStatusAfter(5*time.Second))

	case statsLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Stats failed: %v", msg.err)
			return m, nil
		}
		m.stats = msg.stats
		m.view = viewStats
		m.status = ""
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = fmt.Sprintf("%s complete", msg.action)
		}
		cmds := []tea.Cmd{clearStatusAfter(2 * time.Second)}
		if msg.reload {
			cmds = append(cmds, m.loadRecordsCmd())
		}
		return m, tea.Batch(cmds...)

	case statusMsg:
		if string(msg) == "" && !m.fetching {
			m.status = ""
		}
		return m, nil
	}

	// Delegate to active sub-model
	var cmd tea.Cmd
	switch {
	case m.view == viewAuth:
		m.textInput, cmd = m.textInput.Update(msg)
	case m.view == viewRecords && m.searching:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case m.view == viewRecords:
		m.recordsList, cmd = m.recordsList.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	if key == "ctrl+c" {
		return m, m.quit()
	}

	switch m.view {
	case viewAuth:
		switch key {
		case "enter":
			val := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			if val == "" {
				return m, nil
			}
			select {
			case m.codes <- val:
				m.status = "Exchanging code..."
			default:
			}
			return m, nil
		case "esc":
			if m.cancelFetch != nil {
				m.cancelFetch()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	case viewRecords:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		switch key {
		case "q":
			return m, m.quit()
		case "f":
			return m.startFetch()
		case "tab":
			m.filter = (m.filter + 1) % len(filters)
			return m, m.loadRecordsCmd()
		case "shift+tab":
			m.filter = (m.filter + len(filters) - 1) % len(filters)
			return m, m.loadRecordsCmd()
		case "/":
			m.searching = true
			m.searchInput.SetValue(m.search)
			m.searchInput.CursorEnd()
			return m, m.searchInput.Focus()
		case "esc":
			if m.search != "" {
				m.search = ""
				return m, m.loadRecordsCmd()
			}
			return m, nil
		case "r":
			return m, m.loadRecordsCmd()
		case "s":
			return m, m.statsCmd()
		case "enter":
			if m.selectCurrent() {
				m.view = viewDetail
			}
			return m, nil
		case "l":
			if m.selectCurrent() {
				m.startRelabel(viewRecords)
			}
			return m, nil
		case "d":
			if m.selectCurrent() {
				m.back = viewRecords
				m.view = viewConfirmDelete
			}
			return m, nil
		case "o":
			if m.selectCurrent() {
				return m, m.openCmd(*m.selected)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.recordsList, cmd = m.recordsList.Update(msg)
		return m, cmd

	case viewDetail:
		switch key {
		case "q":
			return m, m.quit()
		case "esc":
			m.view = viewRecords
			return m, nil
		case "l":
			m.startRelabel(viewDetail)
			return m, nil
		case "d":
			m.back = viewDetail
			m.view = viewConfirmDelete
			return m, nil
		case "o":
			return m, m.openCmd(*m.selected)
		}

	case viewRelabel:
		stages := taxonomy.AllStages()
		switch key {
		case "up", "k":
			if m.relabelCursor > 0 {
				m.relabelCursor--
			}
		case "down", "j":
			if m.relabelCursor < len(stages)-1 {
				m.relabelCursor++
			}
		case "esc":
			m.view = m.back
		case "enter":
			st := stages[m.relabelCursor]
			m.selected.Stage = st
			m.view = m.back
			return m, m.relabelCmd(m.selected.ID, st)
		}
		return m, nil

	case viewConfirmDelete:
		switch key {
		case "y", "Y":
			id := m.selected.ID
			m.selected = nil
			m.view = viewRecords
			return m, m.deleteCmd(id)
		case "n", "N", "esc":
			m.view = m.back
		}
		return m, nil

	case viewStats:
		switch key {
		case "q":
			return m, m.quit()
		case "esc", "s":
			m.view = viewRecords
		}
		return m, nil
	}

	return m, nil
}

func (m *AppModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search = strings.TrimSpace(m.searchInput.Value())
		m.searching = false
		m.searchInput.Blur()
		return m, m.loadRecordsCmd()
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// selectCurrent copies the highlighted list item into m.selected.
func (m *AppModel) selectCurrent() bool {
	item, ok := m.recordsList.SelectedItem().(recordItem)
	if !ok {
		return false
	}
	r := item.Stored
	m.selected = &r
	return true
}

func (m *AppModel) startRelabel(back viewState) {
	m.back = back
	m.relabelCursor = 0
	for i, st := range taxonomy.AllStages() {
		if st == m.selected.Stage {
			m.relabelCursor = i
		}
	}
	m.view = viewRelabel
}

func (m *AppModel) startFetch() (tea.Model, tea.Cmd) {
	if m.fetching {
		return m, nil
	}
	if m.fetch == nil {
		m.status = "Fetching is not configured"
		return m, clearStatusAfter(2 * time.Second)
	}
	m.fetching = true
	m.status = "Fetching new emails..."
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelFetch = cancel
	return m, m.fetchCmd(ctx)
}

func (m *AppModel) quit() tea.Cmd {
	m.cancel()
	return tea.Quit
}

func (m *AppModel) listTitle(n int) string {
	title := fmt.Sprintf("Job emails: %s (%d)", filters[m.filter], n)
	if m.search != "" {
		title += fmt.Sprintf(" matching %q", m.search)
	}
	return title
}

// Commands

func (m *AppModel) loadRecordsCmd() tea.Cmd {
	ctx, filter, search := m.ctx, filters[m.filter], m.search
	return func() tea.Msg {
		recs, err := m.tracker.List(ctx, filter, search)
		return recordsLoadedMsg{records: recs, err: err}
	}
}

func (m *AppModel) statsCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		st, err := m.tracker.Stats(ctx)
		return statsLoadedMsg{stats: st, err: err}
	}
}

// fetchCmd runs the fetch in a goroutine and returns its first event: an
// auth URL when consent is needed, otherwise the result.
func (m *AppModel) fetchCmd(ctx context.Context) tea.Cmd {
	events, fetch := m.events, m.fetch
	p := prompter{events: events, codes: m.codes}
	return func() tea.Msg {
		go func() {
			rep, err := fetch(ctx, p)
			events <- fetchDoneMsg{report: rep, err: err}
		}()
		return <-events
	}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

func (m *AppModel) relabelCmd(id string, st taxonomy.Stage) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := m.tracker.Relabel(ctx, id, st.String())
		return actionResultMsg{action: "Relabel", err: err, reload: true}
	}
}

func (m *AppModel) deleteCmd(id string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := m.tracker.Delete(ctx, id)
		return actionResultMsg{action: "Delete", err: err, reload: true}
	}
}

func (m *AppModel) openCmd(r record.Stored) tea.Cmd {
	if r.MessageID == "" {
		m.status = "No Gmail message for this record"
		return clearStatusAfter(2 * time.Second)
	}
	open := m.open
	return func() tea.Msg {
		return actionResultMsg{action: "Open in Gmail", err: open(gmail.MessageURL(r.MessageID))}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

// View renders the appropriate view based on current state.
func (m *AppModel) View() string {
	if m.Err != nil {
		return "Error: " + m.Err.Error() + "\n"
	}

	var b strings.Builder
	switch m.view {
	case viewAuth:
		b.WriteString("Please open this URL in your browser to authorize Gmail access:\n\n")
		b.WriteString(m.authURL + "\n\n")
		b.WriteString("The browser redirect completes sign-in on its own. If it does not, paste the code below.\n\n")
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
		b.WriteString(footerStyle.Render("enter: submit  esc: cancel"))
	case viewRecords:
		b.WriteString(m.recordsList.View())
		b.WriteString("\n")
		if m.searching {
			b.WriteString(m.searchInput.View())
			b.WriteString("\n")
			b.WriteString(footerStyle.Render("enter: apply  esc: cancel"))
		} else {
			b.WriteString(recordsFooter())
		}
	case viewDetail:
		b.WriteString(detailView(*m.selected))
		b.WriteString(detailFooter(*m.selected))
	case viewRelabel:
		b.WriteString(relabelView(*m.selected, m.relabelCursor))
		b.WriteString(relabelFooter())
	case viewConfirmDelete:
		b.WriteString(confirmDeleteView(*m.selected))
		b.WriteString("\n")
		b.WriteString(confirmFooter())
	case viewStats:
		b.WriteString(statsView(m.stats))
		b.WriteString(statsFooter())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	return b.String()
}
