package engine

import (
	"database/sql"
	"testing"
	"time"

	"github.com/salvadalba/sunder/internal/graphbuilder"
	"github.com/salvadalba/sunder/internal/indexer"
	"github.com/salvadalba/sunder/internal/linker"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/search"
	"github.com/salvadalba/sunder/internal/settings"
	"github.com/salvadalba/sunder/internal/store"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedText(string) ([]float32, error) { return make([]float32, 384), nil }

// newTestEngine builds an Engine without New, since New requires a
// real ONNX model on disk; this wires the same components by hand
// around a fake embedder for tests that only exercise the queue and
// CRUD wiring.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emb := fakeEmbedder{}
	e := &Engine{
		DB:         db,
		Notes:      noterepo.New(db),
		Indexer:    indexer.New(db, emb),
		Search:     search.New(db, emb),
		Linker:     linker.New(db, emb),
		Graph:      graphbuilder.New(db),
		Settings:   settings.New(db),
		indexQueue: make(chan indexJob, 64),
		queueDone:  make(chan struct{}),
	}
	go e.runIndexQueue()
	t.Cleanup(func() {
		close(e.indexQueue)
		<-e.queueDone
	})
	return e
}

func TestCreateNoteQueuesBackgroundIndex(t *testing.T) {
	e := newTestEngine(t)

	note, err := e.CreateNote("Title", "some reasonably long content to embed", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var count int
		e.DB.Read(func(conn *sql.DB) error {
			return conn.QueryRow(`SELECT COUNT(*) FROM embeddings WHERE note_id = ?`, note.ID).Scan(&count)
		})
		if count == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("background index job never completed")
}

func TestDeleteNoteRemovesRow(t *testing.T) {
	e := newTestEngine(t)
	note, err := e.CreateNote("Title", "content to delete later", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	if err := e.DeleteNote(note.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := e.Notes.Get(note.ID); err == nil {
		t.Fatal("expected note to be gone")
	}
}

func TestDeleteNoteClearsSimilarityCache(t *testing.T) {
	e := newTestEngine(t)
	a, err := e.CreateNote("A", "some reasonably long content about gardening", "")
	if err != nil {
		t.Fatalf("CreateNote a: %v", err)
	}
	if _, err := e.CreateNote("B", "some reasonably long content about tomatoes", ""); err != nil {
		t.Fatalf("CreateNote b: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int
		e.DB.Read(func(conn *sql.DB) error {
			return conn.QueryRow(`SELECT COUNT(*) FROM similarity_cache`).Scan(&count)
		})
		if count > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background graph rebuild never populated similarity_cache")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := e.DeleteNote(a.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}

	var count int
	if err := e.DB.Read(func(conn *sql.DB) error {
		return conn.QueryRow(
			`SELECT COUNT(*) FROM similarity_cache WHERE note_id_a = ? OR note_id_b = ?`, a.ID, a.ID,
		).Scan(&count)
	}); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("similarity_cache still has %d row(s) touching deleted note %s", count, a.ID)
	}
}
