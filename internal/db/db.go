package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// busyTimeout bounds how long a writer waits for another connection's
// write transaction before failing with SQLITE_BUSY.
const busyTimeout = 5 * time.Second

// OpenDB opens a SQLite database at the given path and runs migrations.
//
// Pragmas are passed through the DSN so they apply to every pooled
// connection, not only the first one: foreign keys on, a busy timeout, and
// WAL for file databases. Transactions start IMMEDIATE so a read-then-write
// transaction never has to upgrade its lock.
//
// An in-memory database lives only as long as its connection, so the pool is
// capped at one connection for ":memory:".
func OpenDB(path string) (*sql.DB, error) {
	memory := path == MemoryPath
	if !memory {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, memory))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func dsn(path string, memory bool) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	if !memory {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}
