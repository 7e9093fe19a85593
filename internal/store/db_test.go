package store

import (
	"database/sql"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	var vecVersion string
	if err := db.Conn().QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		t.Fatalf("vec_version: %v", err)
	}
	t.Logf("sqlite-vec version: %s", vecVersion)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	before, err := db.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if before != len(migrations) {
		t.Fatalf("applied = %d, want %d", before, len(migrations))
	}

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	after, err := db.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if after != before {
		t.Fatalf("re-running migrate changed applied count: %d -> %d", before, after)
	}
}

func TestWriteRollsBackOnError(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	wantErr := sentinelErr{"boom"}
	err = db.Write(func(tx *sql.Tx) error {
		if _, execErr := tx.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES ('theme', 'rollback-me')`); execErr != nil {
			return execErr
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Write error = %v, want %v", err, wantErr)
	}

	var value string
	scanErr := db.write.QueryRow(`SELECT value FROM settings WHERE key = 'theme'`).Scan(&value)
	if scanErr != nil {
		t.Fatalf("scan theme: %v", scanErr)
	}
	if value != "dark" {
		t.Errorf("theme = %q after rolled-back write, want unchanged default %q", value, "dark")
	}
}

type sentinelErr struct{ msg string }

func (e sentinelErr) Error() string { return e.msg }
