package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/salvadalba/sunder/internal/config"
	"github.com/salvadalba/sunder/internal/engine"
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

// newTestEngine wires an *engine.Engine by hand around a fake embedder,
// since the real engine.New requires an ONNX model on disk.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emb := fakeEmbedder{}
	e := &engine.Engine{
		DB:       db,
		Notes:    noterepo.New(db),
		Indexer:  indexer.New(db, emb),
		Search:   search.New(db, emb),
		Linker:   linker.New(db, emb),
		Graph:    graphbuilder.New(db),
		Settings: settings.New(db),
		Cfg:      config.DefaultConfig(),
	}
	return e
}

func captureCommandStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	return buf.String()
}
