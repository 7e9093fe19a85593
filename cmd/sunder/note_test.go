package main

import (
	"strings"
	"testing"
)

func TestRunNoteCreateAndGet(t *testing.T) {
	e := newTestEngine(t)

	var createErr error
	out := captureCommandStdout(t, func() {
		createErr = runNoteCreate(e, "My Title", "some body text", "", false)
	})
	if createErr != nil {
		t.Fatalf("runNoteCreate: %v", createErr)
	}
	if !strings.Contains(out, "My Title") {
		t.Fatalf("expected output to contain title, got: %q", out)
	}

	list, err := e.Notes.List(0, 10, "updated_at")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(list.Notes))
	}

	out = captureCommandStdout(t, func() {
		createErr = runNoteGet(e, list.Notes[0].ID, true)
	})
	if createErr != nil {
		t.Fatalf("runNoteGet: %v", createErr)
	}
	if !strings.Contains(out, `"Title": "My Title"`) {
		t.Fatalf("expected JSON output with title, got: %q", out)
	}
}

func TestRunNoteCreateRejectsEmptyTitle(t *testing.T) {
	e := newTestEngine(t)
	if err := runNoteCreate(e, "", "content", "", false); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestRunNoteDelete(t *testing.T) {
	e := newTestEngine(t)
	note, err := e.Notes.Create("Title", "content", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	out := captureCommandStdout(t, func() {
		err = runNoteDelete(e, note.ID)
	})
	if err != nil {
		t.Fatalf("runNoteDelete: %v", err)
	}
	if !strings.Contains(out, "deleted") {
		t.Fatalf("expected deleted message, got: %q", out)
	}

	if _, err := e.Notes.Get(note.ID); err == nil {
		t.Fatal("expected note to be gone")
	}
}

func TestRunNoteListEmpty(t *testing.T) {
	e := newTestEngine(t)
	out := captureCommandStdout(t, func() {
		if err := runNoteList(e, 0, 20, "updated_at", false); err != nil {
			t.Fatalf("runNoteList: %v", err)
		}
	})
	if !strings.Contains(out, "No notes found") {
		t.Fatalf("expected empty-list message, got: %q", out)
	}
}
