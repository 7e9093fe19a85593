package indexer

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedText(text string) ([]float32, error) {
	return make([]float32, 384), nil
}

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertNote(t *testing.T, db *store.DB, id, title, content string) {
	t.Helper()
	err := db.Write(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO notes (id, title, content, word_count, created_at, updated_at)
			 VALUES (?, ?, ?, 0, '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`,
			id, title, content,
		)
		return err
	})
	if err != nil {
		t.Fatalf("insert note: %v", err)
	}
}

func TestIndexAndRemoveEmbedding(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, fakeEmbedder{})
	insertNote(t, db, "n1", "Note", "enough words to index this note")

	if err := svc.IndexNote("n1", "enough words to index this note"); err != nil {
		t.Fatalf("IndexNote: %v", err)
	}

	var count int
	db.Read(func(conn *sql.DB) error {
		return conn.QueryRow(`SELECT COUNT(*) FROM embeddings WHERE note_id = ?`, "n1").Scan(&count)
	})
	if count != 1 {
		t.Fatalf("embeddings rows = %d, want 1", count)
	}

	if err := svc.RemoveEmbedding("n1"); err != nil {
		t.Fatalf("RemoveEmbedding: %v", err)
	}
	db.Read(func(conn *sql.DB) error {
		return conn.QueryRow(`SELECT COUNT(*) FROM embeddings WHERE note_id = ?`, "n1").Scan(&count)
	})
	if count != 0 {
		t.Fatalf("embeddings rows after remove = %d, want 0", count)
	}
}

func TestReindexAllGuardsAgainstConcurrentRuns(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, fakeEmbedder{})

	svc.reindexing.Store(true)
	_, err := svc.ReindexAll(nil)
	if kind, ok := sundererr.KindOf(err); !ok || kind != sundererr.KindAlreadyRunning {
		t.Fatalf("err = %v, want AlreadyRunning", err)
	}
	svc.reindexing.Store(false)
}

func TestReindexAllSkipsShortNotes(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, fakeEmbedder{})

	insertNote(t, db, "n1", "short", "one two")
	insertNote(t, db, "n2", "long", "a reasonably long piece of content here")

	var mu sync.Mutex
	var titles []string
	indexed, err := svc.ReindexAll(func(i, total int, title string) {
		mu.Lock()
		titles = append(titles, title)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("ReindexAll: %v", err)
	}
	if indexed != 2 {
		t.Fatalf("indexed = %d, want 2", indexed)
	}
	if len(titles) != 1 || titles[0] != "long" {
		t.Errorf("progress callbacks = %v, want only the long note", titles)
	}
}
