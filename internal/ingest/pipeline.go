// Package ingest turns fetched messages into stored job-email records:
// classify, drop what is not job-related, dedupe, insert.
package ingest

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"jobtrail/internal/classify"
	"jobtrail/internal/dedupe"
	"jobtrail/internal/mailbox"
	"jobtrail/internal/record"
	"jobtrail/internal/store"
)

// Pipeline processes a batch sequentially. It must be the only writer to
// its store while Ingest runs: each insert has to be visible to the next
// message's duplicate check.
type Pipeline struct {
	classifier *classify.Classifier
	gate       *dedupe.Gate
	store      store.RecordStore
	metrics    *Metrics
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithMetrics(m *Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(c *classify.Classifier, s store.RecordStore, opts ...Option) *Pipeline {
	p := &Pipeline{classifier: c, store: s, logger: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	p.gate = dedupe.New(s, p.logger)
	return p
}

// Ingest processes msgs in order and never stops early: malformed messages,
// lookup errors and insert errors are counted as Failed and the batch goes
// on. A cancelled ctx makes the remaining store calls fail, so they are
// counted the same way.
func (p *Pipeline) Ingest(ctx context.Context, msgs []mailbox.RawMessage) Report {
	var rep Report
	for _, m := range msgs {
		switch p.ingestOne(ctx, m) {
		case OutcomeAccepted:
			rep.Accepted++
		case OutcomeDuplicate:
			rep.RejectedDuplicate++
		case OutcomeIrrelevant:
			rep.RejectedIrrelevant++
		default:
			rep.Failed++
		}
	}
	p.logger.Info("Ingested batch",
		zap.Int("messages", len(msgs)),
		zap.Int("accepted", rep.Accepted),
		zap.Int("duplicate", rep.RejectedDuplicate),
		zap.Int("irrelevant", rep.RejectedIrrelevant),
		zap.Int("failed", rep.Failed))
	return rep
}

func (p *Pipeline) ingestOne(ctx context.Context, m mailbox.RawMessage) string {
	outcome := p.process(ctx, m)
	p.metrics.outcome(outcome)
	return outcome
}

func (p *Pipeline) process(ctx context.Context, m mailbox.RawMessage) string {
	if strings.TrimSpace(m.Subject) == "" || strings.TrimSpace(m.Sender) == "" || m.ReceivedAt.IsZero() {
		p.logger.Warn("Malformed message",
			zap.String("message_id", m.ID),
			zap.String("subject", m.Subject),
			zap.String("sender", m.Sender))
		return OutcomeFailed
	}

	stage, ok := p.classifier.Classify(m.Subject, m.Snippet)
	if !ok {
		return OutcomeIrrelevant
	}

	e := record.Email{
		Subject:    m.Subject,
		Sender:     m.Sender,
		ReceivedAt: m.ReceivedAt,
		Stage:      stage,
		MessageID:  m.ID,
	}
	verdict, err := p.gate.ShouldAccept(ctx, e)
	if err != nil {
		p.logger.Error("Duplicate check failed", zap.String("message_id", m.ID), zap.Error(err))
		return OutcomeFailed
	}
	if !verdict.Accepted() {
		return OutcomeDuplicate
	}

	if _, err := p.store.Insert(ctx, e); err != nil {
		// The store's unique index caught what the gate did not.
		if errors.Is(err, record.ErrDuplicate) {
			return OutcomeDuplicate
		}
		p.logger.Error("Insert failed", zap.String("message_id", m.ID), zap.Error(err))
		return OutcomeFailed
	}
	p.logger.Debug("Stored email",
		zap.String("message_id", m.ID),
		zap.String("stage", stage.String()))
	return OutcomeAccepted
}
