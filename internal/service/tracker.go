// Package service is what the CLI and the TUI call: listing, statistics,
// relabelling, deletion and manual entry on top of a RecordStore.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobtrail/internal/dedupe"
	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/taxonomy"
)

type Tracker struct {
	store  store.RecordStore
	gate   *dedupe.Gate
	now    func() time.Time
	logger *zap.Logger
}

func NewTracker(s store.RecordStore, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: s, gate: dedupe.New(s, logger), now: time.Now, logger: logger}
}

// List returns records matching the stage filter value ("all" or "" for
// every stage) and search text, newest first.
func (t *Tracker) List(ctx context.Context, stage, search string) ([]record.Stored, error) {
	st, err := record.StageFilter(stage)
	if err != nil {
		return nil, err
	}
	return t.store.List(ctx, record.Filter{Stage: st, Search: strings.TrimSpace(search)})
}

func (t *Tracker) Stats(ctx context.Context) (record.Stats, error) {
	return t.store.Stats(ctx, t.now())
}

// Relabel moves a record to another stage. The name is parsed before the
// store is touched; "other" is a valid target.
func (t *Tracker) Relabel(ctx context.Context, id, stageName string) error {
	st, err := taxonomy.ParseStage(stageName)
	if err != nil {
		return err
	}
	if err := t.store.UpdateStage(ctx, id, st); err != nil {
		return fmt.Errorf("relabel: %w", err)
	}
	t.logger.Info("Relabelled record", zap.String("id", id), zap.String("stage", st.String()))
	return nil
}

// Delete removes records from the tracking database only; the mailbox is
// never touched. It stops at the first failure.
func (t *Tracker) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := t.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		t.logger.Info("Deleted record", zap.String("id", id))
	}
	return nil
}

// AddManual stores an email that did not come from the mailbox. It goes
// through the same duplicate checks as fetched mail and returns
// record.ErrDuplicate when they reject it.
func (t *Tracker) AddManual(ctx context.Context, e record.Email) (string, error) {
	e.Subject = strings.TrimSpace(e.Subject)
	e.Sender = strings.TrimSpace(e.Sender)
	if e.Subject == "" || e.Sender == "" {
		return "", fmt.Errorf("add: subject and sender are required")
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = t.now().UTC().Truncate(time.Millisecond)
	}
	if e.Stage == "" {
		e.Stage = taxonomy.Other
	} else {
		st, err := taxonomy.ParseStage(string(e.Stage))
		if err != nil {
			return "", err
		}
		e.Stage = st
	}

	verdict, err := t.gate.ShouldAccept(ctx, e)
	if err != nil {
		return "", fmt.Errorf("add: %w", err)
	}
	if !verdict.Accepted() {
		return "", fmt.Errorf("add %q (%s): %w", e.Subject, verdict, record.ErrDuplicate)
	}
	id, err := t.store.Insert(ctx, e)
	if err != nil {
		return "", fmt.Errorf("add: %w", err)
	}
	return id, nil
}
