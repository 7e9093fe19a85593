package watcher

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/salvadalba/sunder/internal/graphbuilder"
	"github.com/salvadalba/sunder/internal/indexer"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedText(string) ([]float32, error) { return make([]float32, 384), nil }

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	notes := noterepo.New(db)
	idx := indexer.New(db, fakeEmbedder{})
	graph := graphbuilder.New(db)

	w, err := New(root, notes, idx, graph, []string{".git"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()
	notes := noterepo.New(db)
	idx := indexer.New(db, fakeEmbedder{})
	graph := graphbuilder.New(db)

	_, err = New(filepath.Join(t.TempDir(), "does-not-exist"), notes, idx, graph, nil, nil)
	if kind, ok := sundererr.KindOf(err); !ok || kind != sundererr.KindDirectoryNotFound {
		t.Fatalf("err = %v, want DirectoryNotFound", err)
	}
}

func TestIsMarkdownFile(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	cases := map[string]bool{
		"note.md":       true,
		"note.MARKDOWN": true,
		"note.txt":      false,
		"README":        false,
	}
	for name, want := range cases {
		if got := w.isMarkdownFile(name); got != want {
			t.Errorf("isMarkdownFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestScanImportsMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntitle: First\n---\nhello world from a"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.md"), []byte("no front matter here, just words"), 0o644)
	os.WriteFile(filepath.Join(dir, "c.txt"), []byte("ignored"), 0o644)

	w := newTestWatcher(t, dir)
	if err := w.Scan(nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	noteA, err := w.notes.GetByFilePath(filepath.Join(w.root, "a.md"))
	if err != nil {
		t.Fatalf("GetByFilePath: %v", err)
	}
	if noteA == nil || noteA.Title != "First" {
		t.Fatalf("noteA = %+v, want title First", noteA)
	}

	noteB, err := w.notes.GetByFilePath(filepath.Join(w.root, "b.md"))
	if err != nil {
		t.Fatalf("GetByFilePath: %v", err)
	}
	if noteB == nil || noteB.Title != "b" {
		t.Fatalf("noteB = %+v, want title b (filename stem)", noteB)
	}
}

func TestIsSafePathRejectsOutsideRoot(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	if w.isSafePath("/etc/passwd") {
		t.Error("expected /etc/passwd to be rejected as outside the watched root")
	}
}

func TestProcessRemovalDeletesRowAndSimilarityButKeepsFile(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.md")
	pathB := filepath.Join(dir, "b.md")
	os.WriteFile(pathA, []byte("first note with enough words to embed"), 0o644)
	os.WriteFile(pathB, []byte("second note with enough words to embed"), 0o644)

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()
	notes := noterepo.New(db)
	idx := indexer.New(db, fakeEmbedder{})
	graph := graphbuilder.New(db)
	w, err := New(dir, notes, idx, graph, []string{".git"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Scan(nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	noteA, err := w.notes.GetByFilePath(filepath.Join(w.root, "a.md"))
	if err != nil || noteA == nil {
		t.Fatalf("GetByFilePath a: note=%+v err=%v", noteA, err)
	}

	var before int
	if err := db.Read(func(conn *sql.DB) error {
		return conn.QueryRow(
			`SELECT COUNT(*) FROM similarity_cache WHERE note_id_a = ? OR note_id_b = ?`, noteA.ID, noteA.ID,
		).Scan(&before)
	}); err != nil {
		t.Fatalf("count before: %v", err)
	}
	if before == 0 {
		t.Fatal("expected at least one similarity_cache row touching noteA before removal")
	}

	w.processRemoval(filepath.Join(w.root, "a.md"))

	if _, err := w.notes.Get(noteA.ID); err == nil {
		t.Fatal("expected note row to be gone after processRemoval")
	}
	if _, err := os.Stat(pathA); err != nil {
		t.Fatalf("expected file to still exist on disk, stat: %v", err)
	}

	var after int
	if err := db.Read(func(conn *sql.DB) error {
		return conn.QueryRow(
			`SELECT COUNT(*) FROM similarity_cache WHERE note_id_a = ? OR note_id_b = ?`, noteA.ID, noteA.ID,
		).Scan(&after)
	}); err != nil {
		t.Fatalf("count after: %v", err)
	}
	if after != 0 {
		t.Errorf("similarity_cache still has %d row(s) touching removed note", after)
	}
}
