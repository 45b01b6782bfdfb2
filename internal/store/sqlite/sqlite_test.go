package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/store/storetest"
	"jobtrail/internal/taxonomy"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.RecordStore { return testStore(t) })
}

func TestReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "jobtrail.db")

	s, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	received := time.Date(2024, 5, 1, 9, 30, 0, 123_000_000, time.UTC)
	if _, err := s.Insert(ctx, record.Email{
		Subject:    "Phone screen",
		Sender:     "recruiter@acme.com",
		ReceivedAt: received,
		Stage:      taxonomy.Interview,
		MessageID:  "abc",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Close()

	// Migrations must be safe to run again on an existing file.
	s, err = Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.FindByTriple(ctx, "Phone screen", "recruiter@acme.com", received)
	if err != nil {
		t.Fatalf("FindByTriple: %v", err)
	}
	if got == nil || got.MessageID != "abc" {
		t.Fatalf("expected record abc after reopen, got %+v", got)
	}
	if !got.ReceivedAt.Equal(received) {
		t.Fatalf("received_at round trip: want %v got %v", received, got.ReceivedAt)
	}
}

func TestLegacyStageNamesAreCounted(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Rows written by older tools used capitalized labels.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO job_emails (id, subject, sender, received_at, stage) VALUES ('x', 's', 'f', 0, 'Interview')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Insert(ctx, record.Email{Subject: "t", Sender: "f", ReceivedAt: time.UnixMilli(1), Stage: taxonomy.Interview}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	st, err := s.Stats(ctx, time.UnixMilli(0))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Pipeline.Interviews != 2 {
		t.Fatalf("expected 2 interviews, got %d", st.Pipeline.Interviews)
	}
	if len(st.ByStage) != 1 {
		t.Fatalf("expected merged stage rows, got %+v", st.ByStage)
	}
}
