// Package postgres implements store.RecordStore on PostgreSQL through pgx.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/taxonomy"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PoolConfig carries the pool knobs from config.
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnIdleTime time.Duration
}

type Store struct {
	pool *pgxpool.Pool
	q    store.Queries
}

var _ store.RecordStore = (*Store)(nil)

// Open connects, pings and migrates.
func Open(ctx context.Context, cfg PoolConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, q: store.NewQueries(squirrel.Dollar, true)}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Insert(ctx context.Context, e record.Email) (string, error) {
	id := uuid.NewString()
	var msgID *string
	if e.MessageID != "" {
		msgID = &e.MessageID
	}
	query, args, err := s.q.Insert(id, e, e.ReceivedAt.UTC().Truncate(time.Millisecond), msgID).ToSql()
	if err != nil {
		return "", err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return "", mapError(err, "insert", e.Subject)
	}
	return id, nil
}

func (s *Store) FindByMessageID(ctx context.Context, messageID string) (*record.Stored, error) {
	return s.findOne(ctx, s.q.ByMessageID(messageID))
}

func (s *Store) FindByTriple(ctx context.Context, subject, sender string, receivedAt time.Time) (*record.Stored, error) {
	return s.findOne(ctx, s.q.ByTriple(subject, sender, receivedAt.UTC().Truncate(time.Millisecond)))
}

func (s *Store) findOne(ctx context.Context, sel squirrel.SelectBuilder) (*record.Stored, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}
	r, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpdateStage(ctx context.Context, id string, stage taxonomy.Stage) error {
	query, args, err := s.q.UpdateStage(id, string(stage)).ToSql()
	if err != nil {
		return err
	}
	return s.execOne(ctx, id, query, args)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := s.q.Delete(id).ToSql()
	if err != nil {
		return err
	}
	return s.execOne(ctx, id, query, args)
}

func (s *Store) execOne(ctx context.Context, id, query string, args []any) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("record %s: %w", id, record.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "record", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s: %w", id, record.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f record.Filter) ([]record.Stored, error) {
	query, args, err := s.q.List(f).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.Stored
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context, now time.Time) (record.Stats, error) {
	query, args, err := s.q.CountByStage().ToSql()
	if err != nil {
		return record.Stats{}, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return record.Stats{}, err
	}
	byStage := make(map[string]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			rows.Close()
			return record.Stats{}, err
		}
		byStage[stage] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return record.Stats{}, err
	}

	query, args, err = s.q.CountSince(now.Add(-record.RecentWindow)).ToSql()
	if err != nil {
		return record.Stats{}, err
	}
	var recent int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&recent); err != nil {
		return record.Stats{}, err
	}
	return record.NewStats(byStage, recent), nil
}

func scanRecord(row pgx.Row) (record.Stored, error) {
	var (
		r     record.Stored
		id    uuid.UUID
		stage string
		msgID *string
	)
	if err := row.Scan(&id, &r.Subject, &r.Sender, &r.ReceivedAt, &stage, &msgID); err != nil {
		return record.Stored{}, err
	}
	r.ID = id.String()
	r.ReceivedAt = r.ReceivedAt.UTC()
	r.Stage = store.NormalizeStage(stage)
	if msgID != nil {
		r.MessageID = *msgID
	}
	return r, nil
}

// mapError converts pgx errors to record sentinels. Context errors pass
// through untouched.
func mapError(err error, op, key string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, key, record.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s %s: %w", op, key, record.ErrDuplicate)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}
