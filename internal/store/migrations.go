package store

import (
	"fmt"

	"github.com/salvadalba/sunder/internal/sundererr"
)

// migration pairs a monotonic version number with the SQL batch that
// establishes it. Applying the same migration twice must be a no-op —
// every statement uses CREATE ... IF NOT EXISTS / INSERT OR IGNORE so
// that re-running an already-applied version is harmless even before
// the tracking check below short-circuits it.
type migration struct {
	version int
	sql     string
}

// migrations is deliberately a flat, ordered list rather than a set of
// Go functions per version: new schema changes are appended here, and
// the Store tolerates any forward migrations appended in the same way.
var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS notes (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				file_path TEXT UNIQUE,
				word_count INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at DESC);
			CREATE INDEX IF NOT EXISTS idx_notes_file_path ON notes(file_path);
		`,
	},
	{
		version: 2,
		sql: `
			CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
				title,
				content,
				content=notes,
				content_rowid=rowid,
				tokenize='unicode61'
			);

			CREATE TRIGGER IF NOT EXISTS notes_ai AFTER INSERT ON notes BEGIN
				INSERT INTO notes_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END;

			CREATE TRIGGER IF NOT EXISTS notes_ad AFTER DELETE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			END;

			CREATE TRIGGER IF NOT EXISTS notes_au AFTER UPDATE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
				INSERT INTO notes_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END;
		`,
	},
	{
		version: 3,
		sql: `
			CREATE TABLE IF NOT EXISTS embeddings (
				note_id TEXT PRIMARY KEY REFERENCES notes(id) ON DELETE CASCADE,
				vector BLOB NOT NULL,
				model_version TEXT NOT NULL DEFAULT 'minilm-v2-q8',
				updated_at TEXT NOT NULL
			);
		`,
	},
	{
		version: 4,
		sql: `
			CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
				note_id TEXT PRIMARY KEY,
				embedding float[384]
			);
		`,
	},
	{
		version: 5,
		sql: `
			CREATE TABLE IF NOT EXISTS similarity_cache (
				note_id_a TEXT NOT NULL,
				note_id_b TEXT NOT NULL,
				similarity REAL NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (note_id_a, note_id_b),
				CHECK (note_id_a < note_id_b)
			);

			CREATE INDEX IF NOT EXISTS idx_similarity_cache_a ON similarity_cache(note_id_a);
			CREATE INDEX IF NOT EXISTS idx_similarity_cache_b ON similarity_cache(note_id_b);

			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			INSERT OR IGNORE INTO settings (key, value) VALUES ('similarity_threshold', '0.65');
			INSERT OR IGNORE INTO settings (key, value) VALUES ('debounce_ms', '300');
			INSERT OR IGNORE INTO settings (key, value) VALUES ('theme', 'dark');
		`,
	},
}

// migrate applies every not-yet-applied migration, in order, each in
// its own transaction. A failing migration aborts the open without
// advancing the tracking table for that version.
func (db *DB) migrate() error {
	if _, err := db.write.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return sundererr.DatabaseError(err)
	}

	applied := 0
	for _, m := range migrations {
		var already bool
		err := db.write.QueryRow(
			`SELECT COUNT(*) > 0 FROM migrations WHERE version = ?`, m.version,
		).Scan(&already)
		if err != nil {
			return sundererr.DatabaseError(err)
		}
		if already {
			continue
		}

		tx, err := db.write.Begin()
		if err != nil {
			return sundererr.DatabaseError(err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return sundererr.DatabaseError(fmt.Errorf("migration v%d: %w", m.version, err))
		}
		if _, err := tx.Exec(
			`INSERT INTO migrations (version, applied_at) VALUES (?, datetime('now'))`, m.version,
		); err != nil {
			_ = tx.Rollback()
			return sundererr.DatabaseError(fmt.Errorf("record migration v%d: %w", m.version, err))
		}
		if err := tx.Commit(); err != nil {
			return sundererr.DatabaseError(err)
		}
		applied++
		log.Info().Int("version", m.version).Msg("applied migration")
	}

	if applied > 0 {
		log.Info().Int("count", applied).Msg("migrations applied")
	}
	return nil
}

// AppliedMigrations returns how many migration versions have been
// recorded as applied, for tests asserting idempotence.
func (db *DB) AppliedMigrations() (int, error) {
	var n int
	err := db.write.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&n)
	if err != nil {
		return 0, sundererr.DatabaseError(err)
	}
	return n, nil
}
