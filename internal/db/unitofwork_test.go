package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kvStore struct {
	db  *sql.DB
	uow *db.SQLiteUnitOfWork
}

func newKVStore(t *testing.T) *kvStore {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(`CREATE TABLE uow_test (id TEXT PRIMARY KEY, val TEXT)`)
	require.NoError(t, err)
	return &kvStore{db: database, uow: db.NewSQLiteUnitOfWork(database)}
}

func (s *kvStore) get(t *testing.T, id string) (string, bool) {
	t.Helper()
	var val string
	err := s.db.QueryRow(`SELECT val FROM uow_test WHERE id = ?`, id).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	require.NoError(t, err)
	return val, true
}

func put(ctx context.Context, tx db.DBTX, id, val string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO uow_test (id, val) VALUES (?, ?)`, id, val)
	return err
}

func TestWithinTx_CommitsEveryWrite(t *testing.T) {
	s := newKVStore(t)

	err := s.uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := put(ctx, tx, "k1", "v1"); err != nil {
			return err
		}
		return put(ctx, tx, "k2", "v2")
	})
	require.NoError(t, err)

	for id, want := range map[string]string{"k1": "v1", "k2": "v2"} {
		val, found := s.get(t, id)
		assert.True(t, found, id)
		assert.Equal(t, want, val)
	}
}

func TestWithinTx_RollsBackEarlierWritesOnError(t *testing.T) {
	s := newKVStore(t)

	err := s.uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := put(ctx, tx, "k1", "v1"); err != nil {
			return err
		}
		// Duplicate key fails the second write.
		return put(ctx, tx, "k1", "again")
	})
	require.Error(t, err)

	_, found := s.get(t, "k1")
	assert.False(t, found)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := newKVStore(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = put(ctx, tx, "k3", "v3")
			panic("boom")
		})
	})

	_, found := s.get(t, "k3")
	assert.False(t, found)
}

func TestWithinTx_ReturnsCallbackErrorUnwrapped(t *testing.T) {
	s := newKVStore(t)
	sentinel := errors.New("sentinel")

	err := s.uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return fmt.Errorf("wrapped: %w", sentinel)
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "wrapped: sentinel", err.Error())
}

func TestWithinTx_CancelledContext(t *testing.T) {
	s := newKVStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

// countingConn stands in for the tx to observe statements.
type countingConn struct {
	db.DBTX
	execs int
}

func (c *countingConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.execs++
	return c.DBTX.ExecContext(ctx, query, args...)
}

func TestRun_PassesWrappedConnection(t *testing.T) {
	s := newKVStore(t)
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	conn := &countingConn{DBTX: tx}

	err = db.Run(ctx, tx, conn, func(ctx context.Context, c db.DBTX) error {
		return put(ctx, c, "k4", "v4")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, conn.execs)

	val, found := s.get(t, "k4")
	assert.True(t, found)
	assert.Equal(t, "v4", val)
}
