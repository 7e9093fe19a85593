package linker

import (
	"testing"

	"github.com/salvadalba/sunder/internal/store"
)

type fakeEmbedder struct{ vec []float32 }

func (f fakeEmbedder) EmbedText(string) ([]float32, error) { return f.vec, nil }

func TestLatentLinksShortContentReturnsNil(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	svc := New(db, fakeEmbedder{})
	links, err := svc.LatentLinks("two words", "", 0.3, 5)
	if err != nil {
		t.Fatalf("LatentLinks: %v", err)
	}
	if links != nil {
		t.Errorf("links = %v, want nil for short content", links)
	}
}

func TestFilterLinksExcludesSelfAndAppliesThreshold(t *testing.T) {
	all := []Link{
		{NoteID: "self", Similarity: 0.9},
		{NoteID: "a", Similarity: 0.5},
		{NoteID: "b", Similarity: 0.1},
	}
	got := filterLinks(all, "self", 0.3, 5)
	if len(got) != 1 || got[0].NoteID != "a" {
		t.Fatalf("got %+v, want only note a", got)
	}
}

func TestFilterLinksRespectsLimit(t *testing.T) {
	all := []Link{
		{NoteID: "a", Similarity: 0.9},
		{NoteID: "b", Similarity: 0.8},
		{NoteID: "c", Similarity: 0.7},
	}
	got := filterLinks(all, "", 0.0, 2)
	if len(got) != 2 {
		t.Fatalf("got %d links, want 2", len(got))
	}
}
