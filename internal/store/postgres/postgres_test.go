package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrail/internal/record"
	"jobtrail/internal/store"
	"jobtrail/internal/store/storetest"
)

// The contract suite needs a disposable database; point JOBTRAIL_TEST_DSN at one.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("JOBTRAIL_TEST_DSN")
	if dsn == "" {
		t.Skip("JOBTRAIL_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, PoolConfig{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.pool.Exec(ctx, "TRUNCATE job_emails")
	require.NoError(t, err)
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.RecordStore { return testStore(t) })
}

func TestMapError(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: "23505"}, "insert", "x")
	assert.True(t, errors.Is(err, record.ErrDuplicate))

	err = mapError(context.Canceled, "insert", "x")
	assert.True(t, errors.Is(err, context.Canceled))

	plain := errors.New("boom")
	err = mapError(plain, "insert", "x")
	assert.True(t, errors.Is(err, plain))
	assert.False(t, errors.Is(err, record.ErrDuplicate))
}

func TestMalformedIDIsNotFound(t *testing.T) {
	s := testStore(t)
	err := s.Delete(context.Background(), "not-a-uuid")
	assert.True(t, errors.Is(err, record.ErrNotFound))
}
