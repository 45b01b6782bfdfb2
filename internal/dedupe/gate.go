// Package dedupe decides whether a classified email is already stored.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobtrail/internal/record"
)

// Lookup is the slice of store.RecordStore the gate reads from.
type Lookup interface {
	FindByMessageID(ctx context.Context, messageID string) (*record.Stored, error)
	FindByTriple(ctx context.Context, subject, sender string, receivedAt time.Time) (*record.Stored, error)
}

// Verdict is the gate's answer for one candidate.
type Verdict int

const (
	Accept Verdict = iota
	// DuplicateMessageID: a stored record has the same provider message id.
	DuplicateMessageID
	// DuplicateTriple: a stored record has the same subject, sender and
	// received time.
	DuplicateTriple
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case DuplicateMessageID:
		return "duplicate_message_id"
	case DuplicateTriple:
		return "duplicate_triple"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Accepted reports whether the candidate should be written.
func (v Verdict) Accepted() bool { return v == Accept }

type Gate struct {
	store  Lookup
	logger *zap.Logger
}

// New returns a gate reading from store. logger may be nil.
func New(store Lookup, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, logger: logger}
}

// ShouldAccept runs the message-id check, then the subject/sender/date check.
// The second check also runs for candidates with a message id: rows stored
// without one can only be matched that way. Lookup errors are returned and
// the caller decides how to count them.
func (g *Gate) ShouldAccept(ctx context.Context, c record.Email) (Verdict, error) {
	if c.MessageID != "" {
		existing, err := g.store.FindByMessageID(ctx, c.MessageID)
		if err != nil {
			return Accept, fmt.Errorf("dedupe by message id %s: %w", c.MessageID, err)
		}
		if existing != nil {
			g.skip(c, DuplicateMessageID, existing.ID)
			return DuplicateMessageID, nil
		}
	}

	existing, err := g.store.FindByTriple(ctx, c.Subject, c.Sender, c.ReceivedAt)
	if err != nil {
		return Accept, fmt.Errorf("dedupe by subject/sender/date: %w", err)
	}
	if existing != nil {
		g.skip(c, DuplicateTriple, existing.ID)
		return DuplicateTriple, nil
	}
	return Accept, nil
}

func (g *Gate) skip(c record.Email, v Verdict, existingID string) {
	g.logger.Debug("Skipped duplicate email",
		zap.String("subject", c.Subject),
		zap.String("message_id", c.MessageID),
		zap.String("reason", v.String()),
		zap.String("existing_id", existingID),
	)
}
