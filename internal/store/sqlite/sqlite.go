// Package sqlite implements store.RecordStore on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/taxonomy"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(store.FoldFunc, 1, foldCase)
}

// foldCase lowercases TEXT arguments with Unicode rules; other values pass
// through.
func foldCase(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// Store keeps records in SQLite. Received timestamps are stored as Unix
// milliseconds, the resolution Gmail reports them in.
type Store struct {
	db *sql.DB
	q  store.Queries
}

var _ store.RecordStore = (*Store)(nil)

// Open opens (or creates) the database at dbPath and applies migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: every write is serialized, so a dedupe check always
	// sees the inserts that came before it.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, q: store.NewQueries(squirrel.Question, false)}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, e record.Email) (string, error) {
	id := uuid.NewString()
	var msgID any
	if e.MessageID != "" {
		msgID = e.MessageID
	}
	query, args, err := s.q.Insert(id, e, e.ReceivedAt.UnixMilli(), msgID).ToSql()
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("insert %q: %w", e.Subject, record.ErrDuplicate)
		}
		return "", fmt.Errorf("insert %q: %w", e.Subject, err)
	}
	return id, nil
}

func (s *Store) FindByMessageID(ctx context.Context, messageID string) (*record.Stored, error) {
	return s.findOne(ctx, s.q.ByMessageID(messageID))
}

func (s *Store) FindByTriple(ctx context.Context, subject, sender string, receivedAt time.Time) (*record.Stored, error) {
	return s.findOne(ctx, s.q.ByTriple(subject, sender, receivedAt.UnixMilli()))
}

func (s *Store) findOne(ctx context.Context, sel squirrel.SelectBuilder) (*record.Stored, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}
	r, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
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
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, record.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f record.Filter) ([]record.Stored, error) {
	query, args, err := s.q.List(f).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	byStage, err := s.countByStage(ctx)
	if err != nil {
		return record.Stats{}, err
	}

	query, args, err := s.q.CountSince(now.Add(-record.RecentWindow).UnixMilli()).ToSql()
	if err != nil {
		return record.Stats{}, err
	}
	var recent int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&recent); err != nil {
		return record.Stats{}, err
	}
	return record.NewStats(byStage, recent), nil
}

func (s *Store) countByStage(ctx context.Context) (map[string]int, error) {
	query, args, err := s.q.CountByStage().ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStage := make(map[string]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		byStage[stage] = n
	}
	return byStage, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (record.Stored, error) {
	var (
		r     record.Stored
		ms    int64
		stage string
		msgID sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Subject, &r.Sender, &ms, &stage, &msgID); err != nil {
		return record.Stored{}, err
	}
	r.ReceivedAt = time.UnixMilli(ms).UTC()
	r.Stage = store.NormalizeStage(stage)
	r.MessageID = msgID.String
	return r, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
