package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/cybertask/internal/db"
)

// FailOnNthExecUoW injects Err on the FailOn-th ExecContext of every
// transaction, so a test can fail a multi-write operation at each write in
// turn and check that nothing persisted.
//
// Execs are counted from 1 and the count restarts per transaction. Queries
// are not counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error

	mu    sync.Mutex
	execs []string
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	return db.Run(ctx, tx, &failOnNthExec{DBTX: tx, uow: u}, fn)
}

// Execs lists the leading keyword and table of every statement attempted so
// far, e.g. "UPDATE tasks", including the one that failed.
func (u *FailOnNthExecUoW) Execs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.execs...)
}

type failOnNthExec struct {
	db.DBTX
	uow   *FailOnNthExecUoW
	count int32
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.count++
	f.uow.mu.Lock()
	f.uow.execs = append(f.uow.execs, statementLabel(query))
	f.uow.mu.Unlock()

	if f.count == f.uow.FailOn {
		return nil, fmt.Errorf("exec %d (%s): %w", f.count, statementLabel(query), f.uow.Err)
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// statementLabel reduces SQL to its verb and target table.
func statementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	verb := strings.ToUpper(fields[0])
	for i, f := range fields[:len(fields)-1] {
		switch strings.ToUpper(f) {
		case "INTO", "FROM", "UPDATE":
			return verb + " " + fields[i+1]
		}
	}
	return verb
}
