package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrail/internal/mailbox"
	"jobtrail/internal/store/memory"
)

func TestRunnerRun(t *testing.T) {
	now := time.Date(2024, 5, 31, 8, 0, 0, 0, time.UTC)
	var gotAfter time.Time
	src := mailbox.SourceFunc(func(_ context.Context, after time.Time) (mailbox.Batch, error) {
		gotAfter = after
		return mailbox.Batch{
			Messages: []mailbox.RawMessage{
				msg("a", "Job application", "a@x.com", 0, ""),
				msg("b", "Lunch", "a@x.com", 1, ""),
			},
			Skipped: 2,
		}, nil
	})

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := NewRunner(src, newPipeline(memory.New(), WithMetrics(m)), nil)
	r.now = func() time.Time { return now }

	rep, err := r.Run(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Report{Accepted: 1, RejectedIrrelevant: 1, Failed: 2}, rep)
	assert.Equal(t, now.Add(-30*24*time.Hour), gotAfter)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ok")))
}

func TestRunnerFetchErrorIngestsNothing(t *testing.T) {
	s := memory.New()
	src := mailbox.SourceFunc(func(context.Context, time.Time) (mailbox.Batch, error) {
		return mailbox.Batch{}, errors.New("quota exceeded")
	})
	r := NewRunner(src, newPipeline(s), nil)

	rep, err := r.Run(context.Background(), time.Hour)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, Report{}, rep)

	st, err := s.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, st.Total)
}

func TestRunnerWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	src := mailbox.SourceFunc(func(context.Context, time.Time) (mailbox.Batch, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return mailbox.Batch{}, nil
	})
	r := NewRunner(src, newPipeline(memory.New()), nil)

	var reports int
	err := r.Watch(ctx, time.Hour, time.Millisecond, func(Report, error) { reports++ })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, reports)
}

func TestRunnerWatchWaitsAfterSlowRun(t *testing.T) {
	const interval = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	var starts, ends []time.Time
	src := mailbox.SourceFunc(func(context.Context, time.Time) (mailbox.Batch, error) {
		starts = append(starts, time.Now())
		if len(starts) == 1 {
			time.Sleep(3 * interval)
		}
		if len(starts) == 2 {
			cancel()
		}
		ends = append(ends, time.Now())
		return mailbox.Batch{}, nil
	})
	r := NewRunner(src, newPipeline(memory.New()), nil)

	err := r.Watch(ctx, time.Hour, interval, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, starts, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(ends[0]), interval, "second run must wait a full interval after the first ends")
}

func TestReportSummary(t *testing.T) {
	tests := []struct {
		in   Report
		want string
	}{
		{Report{}, "no new emails (0 duplicate, 0 not job-related)"},
		{Report{Accepted: 1, RejectedDuplicate: 3}, "added 1 new email (3 duplicate, 0 not job-related)"},
		{Report{Accepted: 4, RejectedIrrelevant: 2, Failed: 1}, "added 4 new emails (0 duplicate, 2 not job-related, 1 failed)"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.in.Summary())
	}
}

func TestReportAdd(t *testing.T) {
	r := Report{Accepted: 1, Failed: 1}
	r.Add(Report{Accepted: 2, RejectedDuplicate: 1, RejectedIrrelevant: 4})
	assert.Equal(t, Report{Accepted: 3, RejectedDuplicate: 1, RejectedIrrelevant: 4, Failed: 1}, r)
	assert.Equal(t, 9, r.Total())
}
