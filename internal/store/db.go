// Package store owns the on-disk SQLite database: schema migrations,
// the write-ahead-log journal, and the one-writer/many-readers
// concurrency discipline every other component borrows through it.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/salvadalba/sunder/internal/logging"
	"github.com/salvadalba/sunder/internal/sundererr"
)

func init() {
	// Registering sqlite-vec as an auto-extension must happen before any
	// connection is opened, including the read pool's connections.
	sqlite_vec.Auto()
}

// DB wraps a SQLite connection pair: one exclusive writer and a small
// pool of concurrent readers, both pointed at the same file. DB is the
// sole owner of these handles; every other component receives *DB by
// reference and never opens its own connection.
type DB struct {
	write   *sql.DB // single connection, serialized by writeMu
	read    *sql.DB // pooled connections (database/sql manages the pool)
	writeMu sync.Mutex
	path    string
}

const readPoolSize = 4

// OpenPath opens or creates the database at path, applying WAL journaling,
// foreign-key enforcement, and a 5s busy timeout, then runs any
// pending migrations.
func OpenPath(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, sundererr.IoError(fmt.Errorf("create data dir %s: %w", dir, err))
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&" // path is a URI that already carries query parameters
	}
	dsn := path + sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"

	write, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	write.SetMaxOpenConns(1) // exactly one writer

	read, err := sql.Open("sqlite3", dsn)
	if err != nil {
		write.Close()
		return nil, sundererr.DatabaseError(err)
	}
	read.SetMaxOpenConns(readPoolSize)

	var vecVersion string
	if err := write.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		write.Close()
		read.Close()
		return nil, sundererr.DatabaseError(fmt.Errorf("sqlite-vec not available: %w", err))
	}

	db := &DB{write: write, read: read, path: path}
	if err := db.migrate(); err != nil {
		write.Close()
		read.Close()
		return nil, err
	}

	return db, nil
}

// Open opens the database at the configured default path (a thin
// convenience over OpenPath for callers that already resolved a
// config.Config).
func Open(dbPath string) (*DB, error) {
	return OpenPath(dbPath)
}

// OpenMemory opens an in-memory database, for tests. Every OpenMemory
// handle that is open at the same time in one process sees the same
// database; it is discarded once the last handle is closed.
func OpenMemory() (*DB, error) {
	// A bare ":memory:" DSN gives every connection its own database;
	// shared cache mode lets the write and read pools see one database.
	return OpenPath("file::memory:?cache=shared")
}

// Close releases both connection handles.
func (db *DB) Close() error {
	rerr := db.read.Close()
	werr := db.write.Close()
	if werr != nil {
		return sundererr.DatabaseError(werr)
	}
	if rerr != nil {
		return sundererr.DatabaseError(rerr)
	}
	return nil
}

// Path returns the database file path ("" or ":memory:"-shaped DSN for
// in-memory databases).
func (db *DB) Path() string {
	return db.path
}

// Write acquires the exclusive writer handle for the duration of fn,
// running fn inside a transaction. Only one Write call executes at a
// time across the whole process; others block on writeMu.
func (db *DB) Write(fn func(tx *sql.Tx) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.write.Begin()
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}

// Read hands fn a connection from the reader pool. Reads never block
// on the writer thanks to WAL journaling.
func (db *DB) Read(fn func(conn *sql.DB) error) error {
	return fn(db.read)
}

// Conn exposes the raw writer handle for packages (store's own
// migrations, integrity checks) that need direct, non-transactional
// access. Other packages should prefer Read/Write.
func (db *DB) Conn() *sql.DB {
	return db.write
}

// IntegrityCheck runs SQLite's built-in integrity check.
func (db *DB) IntegrityCheck() error {
	var result string
	if err := db.write.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return sundererr.DatabaseError(err)
	}
	if result != "ok" {
		return sundererr.DatabaseError(fmt.Errorf("integrity check failed: %s", result))
	}
	return nil
}

var log = logging.Component("store")
