// Package storetest runs the same behavioral checks against every
// store.RecordStore implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/taxonomy"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.RecordStore

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func email(subject, sender string, days int, stage taxonomy.Stage, msgID string) record.Email {
	return record.Email{
		Subject:    subject,
		Sender:     sender,
		ReceivedAt: base.Add(time.Duration(days) * 24 * time.Hour),
		Stage:      stage,
		MessageID:  msgID,
	}
}

// Run executes the contract suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAndFind", func(t *testing.T) { testInsertAndFind(t, newStore(t)) })
	t.Run("DuplicateMessageID", func(t *testing.T) { testDuplicateMessageID(t, newStore(t)) })
	t.Run("ListFilterAndOrder", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("SearchFoldsUnicode", func(t *testing.T) { testSearchFoldsUnicode(t, newStore(t)) })
	t.Run("LegacyStageLabels", func(t *testing.T) { testLegacyStageLabels(t, newStore(t)) })
	t.Run("UpdateStage", func(t *testing.T) { testUpdateStage(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
}

func testInsertAndFind(t *testing.T, s store.RecordStore) {
	ctx := context.Background()

	e := email("Thank you for applying", "hr@acme.com", 0, taxonomy.Application, "m1")
	id, err := s.Insert(ctx, e)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, e.Subject, got.Subject)
	assert.Equal(t, e.Sender, got.Sender)
	assert.True(t, e.ReceivedAt.Equal(got.ReceivedAt), "received %v != %v", got.ReceivedAt, e.ReceivedAt)
	assert.Equal(t, taxonomy.Application, got.Stage)
	assert.Equal(t, "m1", got.MessageID)

	got, err = s.FindByTriple(ctx, e.Subject, e.Sender, e.ReceivedAt)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)

	got, err = s.FindByMessageID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.FindByTriple(ctx, e.Subject, e.Sender, e.ReceivedAt.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, got)

	// No message id: stored as absent and never matched by an empty lookup.
	noID := email("Manual entry", "me@example.com", 1, taxonomy.Other, "")
	_, err = s.Insert(ctx, noID)
	require.NoError(t, err)
	_, err = s.Insert(ctx, email("Another manual", "me@example.com", 2, taxonomy.Other, ""))
	require.NoError(t, err, "several records without a message id are allowed")

	got, err = s.FindByTriple(ctx, noID.Subject, noID.Sender, noID.ReceivedAt)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.MessageID)
}

func testDuplicateMessageID(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	_, err := s.Insert(ctx, email("a", "x@y.com", 0, taxonomy.Application, "dup"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, email("b", "x@y.com", 1, taxonomy.Offer, "dup"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, record.ErrDuplicate), "got %v", err)
}

func testList(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	seed := []record.Email{
		email("Your application at Acme", "jobs@acme.com", 0, taxonomy.Application, "1"),
		email("Interview with Globex", "talent@globex.com", 2, taxonomy.Interview, "2"),
		email("Offer letter", "HR@Initech.com", 1, taxonomy.Offer, "3"),
		email("ACME follow-up", "noreply@other.com", 3, taxonomy.Interview, "4"),
	}
	for _, e := range seed {
		_, err := s.Insert(ctx, e)
		require.NoError(t, err)
	}

	all, err := s.List(ctx, record.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"4", "2", "3", "1"}, messageIDs(all), "newest first")

	interview := taxonomy.Interview
	got, err := s.List(ctx, record.Filter{Stage: &interview})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "2"}, messageIDs(got))

	got, err = s.List(ctx, record.Filter{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "1"}, messageIDs(got), "subject or sender, any case")

	got, err = s.List(ctx, record.Filter{Search: "initech"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, messageIDs(got))

	got, err = s.List(ctx, record.Filter{Stage: &interview, Search: "globex"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, messageIDs(got))

	rejection := taxonomy.Rejection
	got, err = s.List(ctx, record.Filter{Stage: &rejection})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testSearchFoldsUnicode(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	for _, e := range []record.Email{
		email("Entretien à l'ÉCOLE", "rh@ecole.fr", 0, taxonomy.Interview, "fr"),
		email("Bewerbung bei MÜLLER GmbH", "Jörg <jobs@mueller.de>", 1, taxonomy.Application, "de"),
		email("Your application", "jobs@acme.com", 2, taxonomy.Application, "en"),
	} {
		_, err := s.Insert(ctx, e)
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"école", []string{"fr"}},
		{"ÉCOLE", []string{"fr"}},
		{"müller", []string{"de"}},
		{"JÖRG", []string{"de"}},
		{"APPLICATION", []string{"en"}},
	}
	for _, tc := range tests {
		got, err := s.List(ctx, record.Filter{Search: tc.search})
		require.NoError(t, err)
		assert.Equal(t, tc.want, messageIDs(got), tc.search)
	}
}

// Records written with capitalized labels ("Interview") must be counted and
// filtered the same way.
func testLegacyStageLabels(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	for _, e := range []record.Email{
		email("Interview invite", "a@x.com", 0, taxonomy.Stage("Interview"), "old"),
		email("Interview round 2", "a@x.com", 1, taxonomy.Interview, "new"),
	} {
		_, err := s.Insert(ctx, e)
		require.NoError(t, err)
	}

	interview := taxonomy.Interview
	got, err := s.List(ctx, record.Filter{Stage: &interview})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, messageIDs(got))
	for _, r := range got {
		assert.Equal(t, taxonomy.Interview, r.Stage, r.MessageID)
	}

	st, err := s.Stats(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, len(got), st.Pipeline.Interviews)
	assert.Equal(t, []record.StageCount{{Stage: taxonomy.Interview, Count: 2}}, st.ByStage)
}

func testUpdateStage(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	id, err := s.Insert(ctx, email("Interview", "a@b.com", 0, taxonomy.Interview, "u1"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateStage(ctx, id, taxonomy.Offer))
	got, err := s.FindByMessageID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, taxonomy.Offer, got.Stage)

	err = s.UpdateStage(ctx, "00000000-0000-0000-0000-000000000000", taxonomy.Offer)
	assert.True(t, errors.Is(err, record.ErrNotFound), "got %v", err)
}

func testDelete(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	id, err := s.Insert(ctx, email("Bye", "a@b.com", 0, taxonomy.Rejection, "d1"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, email("Stay", "a@b.com", 1, taxonomy.Rejection, "d2"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	got, err := s.FindByMessageID(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.List(ctx, record.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = s.Delete(ctx, id)
	assert.True(t, errors.Is(err, record.ErrNotFound), "got %v", err)
}

func testStats(t *testing.T, s store.RecordStore) {
	ctx := context.Background()
	now := base.Add(30 * 24 * time.Hour)

	empty, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.ByStage)

	seed := []record.Email{
		email("a1", "x", 0, taxonomy.Application, "s1"),
		email("a2", "x", 1, taxonomy.Application, "s2"),
		email("a3", "x", 25, taxonomy.Application, "s3"),
		email("a4", "x", 29, taxonomy.Application, "s4"),
		email("i1", "x", 26, taxonomy.Interview, "s5"),
		email("o1", "x", 2, taxonomy.Offer, "s6"),
		email("r1", "x", 3, taxonomy.Rejection, "s7"),
		email("r2", "x", 4, taxonomy.Rejection, "s8"),
		email("n1", "x", 5, taxonomy.Other, ""),
	}
	for _, e := range seed {
		_, err := s.Insert(ctx, e)
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 9, st.Total)
	assert.Equal(t, 3, st.Recent, "days 25, 26 and 29 fall within the last week")
	assert.Equal(t, record.Pipeline{Applications: 4, Interviews: 1, Offers: 1, Rejections: 2}, st.Pipeline)
	assert.Equal(t, []record.StageCount{
		{Stage: taxonomy.Application, Count: 4},
		{Stage: taxonomy.Rejection, Count: 2},
		{Stage: taxonomy.Interview, Count: 1},
		{Stage: taxonomy.Offer, Count: 1},
		{Stage: taxonomy.Other, Count: 1},
	}, st.ByStage)
}

func messageIDs(rs []record.Stored) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.MessageID
	}
	return out
}
