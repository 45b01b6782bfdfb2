package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jobtrail/internal/classify"
	"jobtrail/internal/config"
	"jobtrail/internal/ingest"
	"jobtrail/internal/mailbox/gmail"
	"jobtrail/internal/service"
	"jobtrail/internal/store"
	"jobtrail/internal/store/memory"
	"jobtrail/internal/store/postgres"
	"jobtrail/internal/store/sqlite"
	"jobtrail/internal/taxonomy"
)

// app holds what every command shares: the store, the classifier and the
// tracker on top of them. Gmail is only touched by runner.
type app struct {
	store      store.RecordStore
	classifier *classify.Classifier
	tracker    *service.Tracker
}

func openApp(ctx context.Context) (*app, error) {
	tx, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, err
	}
	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("Store opened", zap.String("driver", cfg.Store.Driver))
	return &app{
		store:      s,
		classifier: classify.New(tx),
		tracker:    service.NewTracker(s, logger),
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

func openStore(ctx context.Context, sc config.StoreConfig) (store.RecordStore, error) {
	switch sc.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sc.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, postgres.PoolConfig{
			DSN:             sc.DSN,
			MaxConns:        sc.MaxConns,
			MaxConnIdleTime: sc.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}

// pipeline builds an ingest pipeline writing to s. reg may be nil.
func (a *app) pipeline(s store.RecordStore, reg prometheus.Registerer) *ingest.Pipeline {
	opts := []ingest.Option{ingest.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, ingest.WithMetrics(ingest.NewMetrics(reg)))
	}
	return ingest.New(a.classifier, s, opts...)
}

// runner signs in to Gmail, running the consent flow through p when no
// usable token is cached, and returns a runner that ingests into the app's
// store.
func (a *app) runner(ctx context.Context, p gmail.Prompter, reg prometheus.Registerer) (*ingest.Runner, error) {
	return a.runnerInto(ctx, a.store, p, reg)
}

func (a *app) runnerInto(ctx context.Context, s store.RecordStore, p gmail.Prompter, reg prometheus.Registerer) (*ingest.Runner, error) {
	svc, err := gmail.NewService(ctx, gmail.Credentials{
		Dir:              cfg.Home,
		ClientSecretJSON: cfg.Gmail.ClientSecretJSON,
	}, p, logger)
	if err != nil {
		return nil, fmt.Errorf("gmail sign-in: %w", err)
	}
	fetcher := gmail.NewFetcher(svc, gmail.FetchOptions{
		MaxResults: cfg.Gmail.MaxResults,
		Workers:    cfg.Gmail.Workers,
	}, logger)
	return ingest.NewRunner(fetcher, a.pipeline(s, reg), logger), nil
}
