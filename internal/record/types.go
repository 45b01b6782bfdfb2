// Package record defines the job-email records shared by the pipeline, the
// stores and the UI.
package record

import (
	"errors"
	"strings"
	"time"

	"jobtrail/internal/taxonomy"
)

var (
	// ErrNotFound is returned by stores when no record has the given id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write would break message-id or
	// subject/sender/date uniqueness.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidStage is returned for stage names outside the taxonomy.
	ErrInvalidStage = taxonomy.ErrInvalidStage
)

// Email is a classified job email ready to be stored. MessageID is empty
// when the source has no stable provider id (manual entries, old imports).
type Email struct {
	Subject    string
	Sender     string
	ReceivedAt time.Time
	Stage      taxonomy.Stage
	MessageID  string
}

// Stored is an Email with the identity assigned by the store.
type Stored struct {
	ID string
	Email
}

// Filter narrows a listing. A nil Stage means every stage; Search matches
// subject or sender case-insensitively.
type Filter struct {
	Stage  *taxonomy.Stage
	Search string
}

// StageFilter parses a UI filter value. "all" and "" select every stage.
func StageFilter(v string) (*taxonomy.Stage, error) {
	if v = strings.TrimSpace(v); v == "" || strings.EqualFold(v, "all") {
		return nil, nil
	}
	st, err := taxonomy.ParseStage(v)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
