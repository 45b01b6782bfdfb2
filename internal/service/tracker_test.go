package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrail/internal/record"
	"jobtrail/internal/store/memory"
	"jobtrail/internal/taxonomy"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTracker(t *testing.T) (*Tracker, *memory.Store) {
	t.Helper()
	s := memory.New()
	tr := NewTracker(s, nil)
	tr.now = func() time.Time { return now }
	return tr, s
}

func seed(t *testing.T, s *memory.Store, subject string, stage taxonomy.Stage, daysAgo int, msgID string) string {
	t.Helper()
	id, err := s.Insert(context.Background(), record.Email{
		Subject:    subject,
		Sender:     "hr@acme.com",
		ReceivedAt: now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		Stage:      stage,
		MessageID:  msgID,
	})
	require.NoError(t, err)
	return id
}

func TestRelabel(t *testing.T) {
	tr, s := newTracker(t)
	id := seed(t, s, "Interview", taxonomy.Interview, 1, "m1")
	ctx := context.Background()

	require.NoError(t, tr.Relabel(ctx, id, "Offer"))
	got, err := s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Offer, got.Stage)

	require.NoError(t, tr.Relabel(ctx, id, "other"), "other is a valid target")

	err = tr.Relabel(ctx, id, "ghosted")
	assert.ErrorIs(t, err, record.ErrInvalidStage)
	got, err = s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Other, got.Stage, "unchanged after an invalid relabel")

	err = tr.Relabel(ctx, "no-such-id", "offer")
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestDelete(t *testing.T) {
	tr, s := newTracker(t)
	a := seed(t, s, "a", taxonomy.Application, 1, "a")
	b := seed(t, s, "b", taxonomy.Application, 2, "b")
	seed(t, s, "c", taxonomy.Application, 3, "c")
	ctx := context.Background()

	require.NoError(t, tr.Delete(ctx, a, b))
	all, err := tr.List(ctx, "all", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "c", all[0].MessageID)

	assert.ErrorIs(t, tr.Delete(ctx, a), record.ErrNotFound)
}

func TestList(t *testing.T) {
	tr, s := newTracker(t)
	seed(t, s, "Your application", taxonomy.Application, 3, "1")
	seed(t, s, "Interview with Globex", taxonomy.Interview, 2, "2")
	seed(t, s, "Interview follow-up", taxonomy.Interview, 1, "3")
	ctx := context.Background()

	got, err := tr.List(ctx, "Interview", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = tr.List(ctx, "", "  globex ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].MessageID)

	_, err = tr.List(ctx, "pending", "")
	assert.ErrorIs(t, err, record.ErrInvalidStage)
}

func TestStatsUsesClock(t *testing.T) {
	tr, s := newTracker(t)
	seed(t, s, "old", taxonomy.Application, 10, "1")
	seed(t, s, "new", taxonomy.Interview, 2, "2")

	st, err := tr.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Recent)
	rate, ok := st.Pipeline.ResponseRate()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, rate, 1e-9)
}

func TestAddManual(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	e := record.Email{Subject: " Recruiter call ", Sender: "me@example.com", Stage: "Interview"}
	id, err := tr.AddManual(ctx, e)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all, err := tr.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Recruiter call", all[0].Subject)
	assert.Equal(t, taxonomy.Interview, all[0].Stage)
	assert.True(t, now.Equal(all[0].ReceivedAt))
	assert.Empty(t, all[0].MessageID)

	_, err = tr.AddManual(ctx, e)
	assert.ErrorIs(t, err, record.ErrDuplicate, "same subject, sender and time")

	_, err = tr.AddManual(ctx, record.Email{Subject: "x", Sender: "y", Stage: "maybe"})
	assert.ErrorIs(t, err, record.ErrInvalidStage)

	_, err = tr.AddManual(ctx, record.Email{Subject: "x"})
	assert.Error(t, err)

	id, err = tr.AddManual(ctx, record.Email{Subject: "Coffee chat", Sender: "me@example.com"})
	require.NoError(t, err)
	got, err := tr.List(ctx, "other", "coffee")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
}
