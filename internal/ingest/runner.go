package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobtrail/internal/mailbox"
)

// Runner fetches from a mailbox and feeds the result to a Pipeline.
type Runner struct {
	source   mailbox.Source
	pipeline *Pipeline
	now      func() time.Time
	logger   *zap.Logger
}

func NewRunner(source mailbox.Source, pipeline *Pipeline, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{source: source, pipeline: pipeline, now: time.Now, logger: logger}
}

// Run fetches messages received in the last lookback and ingests them.
// A fetch error is returned and nothing is ingested. Messages the source
// listed but could not read are added to Failed.
func (r *Runner) Run(ctx context.Context, lookback time.Duration) (Report, error) {
	start := r.now()
	batch, err := r.source.Fetch(ctx, start.Add(-lookback))
	if err != nil {
		r.pipeline.metrics.run("fetch_error", r.now().Sub(start))
		return Report{}, fmt.Errorf("fetch messages: %w", err)
	}

	rep := r.pipeline.Ingest(ctx, batch.Messages)
	for i := 0; i < batch.Skipped; i++ {
		r.pipeline.metrics.outcome(OutcomeFailed)
	}
	rep.Failed += batch.Skipped
	r.pipeline.metrics.run("ok", r.now().Sub(start))
	r.logger.Info("Fetch run complete", zap.String("summary", rep.Summary()))
	return rep, nil
}

// Watch calls Run until ctx is done, starting immediately and waiting
// interval after each run finishes, so a slow run never leads straight into
// the next. Failed runs are logged and do not stop the loop. onReport may be
// nil.
func (r *Runner) Watch(ctx context.Context, lookback, interval time.Duration, onReport func(Report, error)) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		rep, err := r.Run(ctx, lookback)
		if err != nil {
			r.logger.Error("Fetch run failed", zap.Error(err))
		}
		if onReport != nil {
			onReport(rep, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
