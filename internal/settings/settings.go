// Package settings stores and validates the small set of user
// preferences persisted in the settings table: the watched directory,
// the similarity threshold used by linking and graphing, a debounce
// window value (stored only; the file watcher uses its own fixed
// delay), and the UI theme.
package settings

import (
	"database/sql"
	"strconv"

	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

// Settings is the full set of user preferences.
type Settings struct {
	WatchDirectory      string
	SimilarityThreshold float64
	DebounceMs          int
	Theme               string
}

// Patch updates a subset of Settings; nil fields are left unchanged.
type Patch struct {
	SimilarityThreshold *float64
	DebounceMs          *int
	Theme               *string
}

// Service reads and writes the settings table.
type Service struct {
	db *store.DB
}

// New wires a Service to db.
func New(db *store.DB) *Service {
	return &Service{db: db}
}

// Get returns the current settings, falling back to defaults for any
// key missing from the table (which migrations seed, so this only
// matters for watch_directory, which starts unset).
func (s *Service) Get() (*Settings, error) {
	values := make(map[string]string)
	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(`SELECT key, value FROM settings`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var k, v string
			if err := rows.Scan(&k, &v); err != nil {
				return err
			}
			values[k] = v
		}
		return rows.Err()
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}

	out := &Settings{
		WatchDirectory:      values["watch_directory"],
		SimilarityThreshold: 0.65,
		DebounceMs:          300,
		Theme:               "dark",
	}
	if v, ok := values["similarity_threshold"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out.SimilarityThreshold = f
		}
	}
	if v, ok := values["debounce_ms"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.DebounceMs = n
		}
	}
	if v, ok := values["theme"]; ok {
		out.Theme = v
	}
	return out, nil
}

// Update validates every supplied field before writing any of them, so
// a patch either applies completely or not at all.
func (s *Service) Update(patch Patch) error {
	if patch.SimilarityThreshold != nil {
		if *patch.SimilarityThreshold < 0 || *patch.SimilarityThreshold > 1 {
			return sundererr.InvalidValue("similarity_threshold must be between 0 and 1")
		}
	}
	if patch.DebounceMs != nil {
		if *patch.DebounceMs < 100 || *patch.DebounceMs > 2000 {
			return sundererr.InvalidValue("debounce_ms must be between 100 and 2000")
		}
	}
	if patch.Theme != nil {
		if *patch.Theme != "dark" && *patch.Theme != "light" {
			return sundererr.InvalidValue(`theme must be "dark" or "light"`)
		}
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		if patch.SimilarityThreshold != nil {
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO settings (key, value) VALUES ('similarity_threshold', ?)`,
				strconv.FormatFloat(*patch.SimilarityThreshold, 'f', -1, 64),
			); err != nil {
				return err
			}
		}
		if patch.DebounceMs != nil {
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO settings (key, value) VALUES ('debounce_ms', ?)`,
				strconv.Itoa(*patch.DebounceMs),
			); err != nil {
				return err
			}
		}
		if patch.Theme != nil {
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO settings (key, value) VALUES ('theme', ?)`, *patch.Theme,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}

// SetWatchDirectory persists the directory the file watcher should
// monitor.
func (s *Service) SetWatchDirectory(dir string) error {
	err := s.db.Write(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES ('watch_directory', ?)`, dir)
		return err
	})
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}
