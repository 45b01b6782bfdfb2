package tui

import (
	"jobtrail/internal/ingest"
	"jobtrail/internal/record"
)

// Async message types for Bubble Tea commands.

type recordsLoadedMsg struct {
	records []record.Stored
	err     error
}

type statsLoadedMsg struct {
	stats record.Stats
	err   error
}

type fetchDoneMsg struct {
	report ingest.Report
	err    error
}

type authURLMsg string

type actionResultMsg struct {
	action string // "Relabel", "Delete", "Open in Gmail"
	err    error
	reload bool
}

type statusMsg string
