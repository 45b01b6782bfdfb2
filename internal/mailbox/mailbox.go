// Package mailbox describes what the ingestion pipeline needs from a mail
// provider. The Gmail implementation lives in the gmail subpackage.
package mailbox

import (
	"context"
	"time"
)

// RawMessage is one fetched email before classification. ID is the
// provider's stable message id; it may be empty for sources without one.
type RawMessage struct {
	ID         string
	Subject    string
	Sender     string
	ReceivedAt time.Time
	Snippet    string
}

// Batch is the result of one fetch. Skipped counts messages the provider
// listed but that could not be read.
type Batch struct {
	Messages []RawMessage
	Skipped  int
}

// Source fetches messages received after a point in time, oldest first or
// newest first as the provider lists them.
type Source interface {
	Fetch(ctx context.Context, after time.Time) (Batch, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, after time.Time) (Batch, error)

func (f SourceFunc) Fetch(ctx context.Context, after time.Time) (Batch, error) {
	return f(ctx, after)
}
