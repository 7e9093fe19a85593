package main

import (
	"strings"
	"testing"
)

func TestRunReindexEmptyVault(t *testing.T) {
	e := newTestEngine(t)
	out := captureCommandStdout(t, func() {
		if err := runReindex(e); err != nil {
			t.Fatalf("runReindex: %v", err)
		}
	})
	if !strings.Contains(out, "reindexed 0 notes") {
		t.Fatalf("expected zero-note summary, got: %q", out)
	}
}

func TestRunReindexSkipsShortNotes(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Notes.Create("A", "hi", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.Notes.Create("B", "a reasonably long note body here", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	out := captureCommandStdout(t, func() {
		if err := runReindex(e); err != nil {
			t.Fatalf("runReindex: %v", err)
		}
	})
	if !strings.Contains(out, "reindexed 2 notes") {
		t.Fatalf("expected both notes counted, got: %q", out)
	}
}
