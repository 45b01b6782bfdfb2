// Package memory is an in-process store.RecordStore, used for dry runs and
// tests. Contents are lost on Close.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/taxonomy"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]record.Stored
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[string]record.Stored)}
}

func (s *Store) Close() error { return nil }

func (s *Store) Insert(_ context.Context, e record.Email) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same precision as the SQL stores.
	e.ReceivedAt = e.ReceivedAt.UTC().Truncate(time.Millisecond)
	e.Stage = store.NormalizeStage(string(e.Stage))
	if e.MessageID != "" {
		for _, r := range s.records {
			if r.MessageID == e.MessageID {
				return "", fmt.Errorf("insert %q: %w", e.Subject, record.ErrDuplicate)
			}
		}
	}
	id := uuid.NewString()
	s.records[id] = record.Stored{ID: id, Email: e}
	return id, nil
}

func (s *Store) FindByMessageID(_ context.Context, messageID string) (*record.Stored, error) {
	if messageID == "" {
		return nil, nil
	}
	return s.find(func(r record.Stored) bool { return r.MessageID == messageID }), nil
}

func (s *Store) FindByTriple(_ context.Context, subject, sender string, receivedAt time.Time) (*record.Stored, error) {
	receivedAt = receivedAt.Truncate(time.Millisecond)
	return s.find(func(r record.Stored) bool {
		return r.Subject == subject && r.Sender == sender && r.ReceivedAt.Equal(receivedAt)
	}), nil
}

func (s *Store) find(match func(record.Stored) bool) *record.Stored {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if match(r) {
			r := r
			return &r
		}
	}
	return nil
}

func (s *Store) UpdateStage(_ context.Context, id string, stage taxonomy.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %s: %w", id, record.ErrNotFound)
	}
	r.Stage = store.NormalizeStage(string(stage))
	s.records[id] = r
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("record %s: %w", id, record.ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

func (s *Store) List(_ context.Context, f record.Filter) ([]record.Stored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []record.Stored
	for _, r := range s.records {
		if f.Stage != nil && r.Stage != *f.Stage {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Subject), search) &&
			!strings.Contains(strings.ToLower(r.Sender), search) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out, nil
}

func (s *Store) Stats(_ context.Context, now time.Time) (record.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := now.Add(-record.RecentWindow)
	byStage := make(map[string]int)
	recent := 0
	for _, r := range s.records {
		byStage[string(r.Stage)]++
		if !r.ReceivedAt.Before(since) {
			recent++
		}
	}
	return record.NewStats(byStage, recent), nil
}
