package db_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusy(t *testing.T) {
	assert.False(t, db.IsBusy(nil))
	assert.False(t, db.IsBusy(errors.New("database is locked")))
	assert.False(t, db.IsBusy(fmt.Errorf("wrapped: %w", context.Canceled)))
}

// A second writer waits for the first to commit instead of failing.
func TestWithinTx_WaitsForConcurrentWriter(t *testing.T) {
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "busy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = database.Exec(`CREATE TABLE uow_test (id TEXT PRIMARY KEY, val TEXT)`)
	require.NoError(t, err)

	uow := db.NewSQLiteUnitOfWork(database)
	ctx := context.Background()

	holding := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO uow_test (id, val) VALUES ('a', '1')`); err != nil {
				return err
			}
			close(holding)
			time.Sleep(150 * time.Millisecond)
			return nil
		})
	}()

	<-holding
	err = uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `UPDATE uow_test SET val = '2' WHERE id = 'a'`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, <-firstDone)

	var val string
	require.NoError(t, database.QueryRow(`SELECT val FROM uow_test WHERE id = 'a'`).Scan(&val))
	assert.Equal(t, "2", val)
}
