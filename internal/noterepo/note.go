// Package noterepo owns note storage: validated CRUD against the
// notes table, backed by a shared store.DB.
package noterepo

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

const (
	maxTitleLen   = 500
	maxContentLen = 2 * 1024 * 1024
)

// Note is a single stored note.
type Note struct {
	ID        string
	Title     string
	Content   string
	FilePath  sql.NullString
	WordCount int
	CreatedAt string
	UpdatedAt string
}

// ListItem is the trimmed shape returned by List: full content is
// replaced with a short snippet so listing many notes stays cheap.
type ListItem struct {
	ID        string
	Title     string
	Snippet   string
	UpdatedAt string
}

// List is a page of notes plus the total row count, for pagination.
type List struct {
	Notes []ListItem
	Total int
}

// Repo provides validated CRUD over the notes table.
type Repo struct {
	db *store.DB
}

// New wraps db in a Repo.
func New(db *store.DB) *Repo {
	return &Repo{db: db}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", sundererr.ValidationError("title cannot be empty")
	}
	if len(title) > maxTitleLen {
		return "", sundererr.ValidationError("title must be 500 bytes or fewer")
	}
	return title, nil
}

func validateContent(content string) error {
	if len(content) > maxContentLen {
		return sundererr.ContentTooLarge("content exceeds 2MB limit")
	}
	return nil
}

func wordCount(content string) int {
	return len(strings.Fields(content))
}

// Create inserts a new note with a time-ordered UUIDv7 id. filePath is
// empty for notes that aren't backed by a file on disk.
func (r *Repo) Create(title, content, filePath string) (*Note, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, sundererr.Internal("generate note id: " + err.Error())
	}
	now := time.Now().UTC().Format(time.RFC3339)

	note := &Note{
		ID:        id.String(),
		Title:     title,
		Content:   content,
		WordCount: wordCount(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if filePath != "" {
		note.FilePath = sql.NullString{String: filePath, Valid: true}
	}

	err = r.db.Write(func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			`INSERT INTO notes (id, title, content, file_path, word_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			note.ID, note.Title, note.Content, nullableString(note.FilePath), note.WordCount, note.CreatedAt, note.UpdatedAt,
		)
		return execErr
	})
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, sundererr.AlreadyExists("a note already exists at file path " + filePath)
		}
		return nil, sundererr.DatabaseError(err)
	}
	return note, nil
}

// isUniqueConstraintErr reports whether err is a sqlite UNIQUE
// constraint violation, e.g. from notes.file_path.
func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullableString(s sql.NullString) interface{} {
	if !s.Valid {
		return nil
	}
	return s.String
}

func scanNote(row interface{ Scan(...any) error }) (*Note, error) {
	var n Note
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.FilePath, &n.WordCount, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Get fetches a note by id, returning sundererr.KindNotFound if absent.
func (r *Repo) Get(id string) (*Note, error) {
	var note *Note
	err := r.db.Read(func(conn *sql.DB) error {
		row := conn.QueryRow(
			`SELECT id, title, content, file_path, word_count, created_at, updated_at
			 FROM notes WHERE id = ?`, id,
		)
		n, scanErr := scanNote(row)
		if scanErr != nil {
			return scanErr
		}
		note = n
		return nil
	})
	if err == sql.ErrNoRows {
		return nil, sundererr.NotFound("note not found: " + id)
	}
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	return note, nil
}

// GetByFilePath returns the note backed by path, or nil if none does.
func (r *Repo) GetByFilePath(path string) (*Note, error) {
	var note *Note
	err := r.db.Read(func(conn *sql.DB) error {
		row := conn.QueryRow(
			`SELECT id, title, content, file_path, word_count, created_at, updated_at
			 FROM notes WHERE file_path = ?`, path,
		)
		n, scanErr := scanNote(row)
		if scanErr == sql.ErrNoRows {
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		note = n
		return nil
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	return note, nil
}

// Update applies the given title/content if non-nil, leaving the other
// field unchanged, and refreshes updated_at.
func (r *Repo) Update(id string, title, content *string) (*Note, error) {
	existing, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	newTitle := existing.Title
	if title != nil {
		newTitle, err = validateTitle(*title)
		if err != nil {
			return nil, err
		}
	}

	newContent := existing.Content
	if content != nil {
		if err := validateContent(*content); err != nil {
			return nil, err
		}
		newContent = *content
	}

	wc := wordCount(newContent)
	now := time.Now().UTC().Format(time.RFC3339)

	err = r.db.Write(func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			`UPDATE notes SET title = ?, content = ?, word_count = ?, updated_at = ? WHERE id = ?`,
			newTitle, newContent, wc, now, id,
		)
		return execErr
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}

	existing.Title = newTitle
	existing.Content = newContent
	existing.WordCount = wc
	existing.UpdatedAt = now
	return existing, nil
}

// Delete removes a note and, if it is backed by a file, the file too.
func (r *Repo) Delete(id string) error {
	note, err := r.Get(id)
	if err != nil {
		return err
	}

	if err := r.deleteRow(id); err != nil {
		return err
	}

	if note.FilePath.Valid {
		if removeErr := removeFileIfExists(note.FilePath.String); removeErr != nil {
			return sundererr.IoError(removeErr)
		}
	}
	return nil
}

// DeleteRow removes a note's database row without touching any
// backing file. The watcher uses this for file-removal events: the
// file is already gone (or the event is racing a concurrent editor),
// so going through Delete's file-removal step would either no-op or
// clobber a file that has since been rewritten at the same path.
func (r *Repo) DeleteRow(id string) error {
	return r.deleteRow(id)
}

func (r *Repo) deleteRow(id string) error {
	err := r.db.Write(func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
		return execErr
	})
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}

// List returns a page of notes ordered by sortBy ("created_at",
// "title", or the default "updated_at").
func (r *Repo) List(offset, limit int, sortBy string) (*List, error) {
	orderClause := "updated_at DESC"
	switch sortBy {
	case "created_at":
		orderClause = "created_at DESC"
	case "title":
		orderClause = "title ASC"
	}

	result := &List{}
	err := r.db.Read(func(conn *sql.DB) error {
		if err := conn.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&result.Total); err != nil {
			return err
		}

		rows, err := conn.Query(
			`SELECT id, title, content, updated_at FROM notes ORDER BY `+orderClause+` LIMIT ? OFFSET ?`,
			limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var item ListItem
			var content string
			if err := rows.Scan(&item.ID, &item.Title, &content, &item.UpdatedAt); err != nil {
				return err
			}
			item.Snippet = Snippet(content)
			result.Notes = append(result.Notes, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	return result, nil
}
