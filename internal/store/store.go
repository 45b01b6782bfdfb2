// Package store declares the persistence contract for job-email records.
// Implementations live in the sqlite, postgres and memory subpackages.
package store

import (
	"context"
	"time"

	"jobtrail/internal/record"
	"jobtrail/internal/taxonomy"
)

// RecordStore is everything the pipeline and the UI need from storage.
// Lookups return (nil, nil) when nothing matches; mutations of a missing id
// return record.ErrNotFound.
type RecordStore interface {
	Insert(ctx context.Context, e record.Email) (string, error)
	FindByMessageID(ctx context.Context, messageID string) (*record.Stored, error)
	FindByTriple(ctx context.Context, subject, sender string, receivedAt time.Time) (*record.Stored, error)
	UpdateStage(ctx context.Context, id string, stage taxonomy.Stage) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f record.Filter) ([]record.Stored, error)
	Stats(ctx context.Context, now time.Time) (record.Stats, error)
	Close() error
}

// NormalizeStage maps a stored label to its stage. Labels written capitalized
// ("Interview") read back in canonical form; labels that do not parse are
// kept as they are.
func NormalizeStage(label string) taxonomy.Stage {
	if st, err := taxonomy.ParseStage(label); err == nil {
		return st
	}
	return taxonomy.Stage(label)
}
