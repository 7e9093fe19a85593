package search

import (
	"testing"

	"github.com/salvadalba/sunder/internal/embedding"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

// fakeEmbedder returns a deterministic unit vector for any text, so
// search tests don't need a real ONNX model on disk.
type fakeEmbedder struct{ vec []float32 }

func (f fakeEmbedder) EmbedText(string) ([]float32, error) { return f.vec, nil }

func unitVector(hot int) []float32 {
	v := make([]float32, embedding.Dim)
	v[hot] = 1
	return v
}

func newTestService(t *testing.T) (*Service, *noterepo.Repo, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := noterepo.New(db)
	svc := New(db, fakeEmbedder{vec: unitVector(0)})
	return svc, repo, db
}

func TestSearchEmptyQueryReturnsError(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Search("   ", ModeHybrid, 10)
	if kind, ok := sundererr.KindOf(err); !ok || kind != sundererr.KindEmptyQuery {
		t.Fatalf("err = %v, want EmptyQuery", err)
	}
}

func TestFulltextSearchFindsMatchingNote(t *testing.T) {
	svc, repo, _ := newTestService(t)
	note, err := repo.Create("Garden Notes", "tomatoes grow best in full sun", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	results, err := svc.Search("tomatoes", ModeFulltext, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != note.ID {
		t.Fatalf("results = %+v, want one hit for %s", results, note.ID)
	}
	if results[0].MatchType != "fulltext" {
		t.Errorf("MatchType = %q, want fulltext", results[0].MatchType)
	}
}

func TestFulltextSearchNoMatchReturnsEmpty(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.Create("Garden Notes", "tomatoes grow best in full sun", "")

	results, err := svc.Search("spaceships", ModeFulltext, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want none", results)
	}
}
