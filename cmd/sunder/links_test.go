package main

import (
	"strings"
	"testing"
)

func TestRunLinksShortContentReturnsNoLinks(t *testing.T) {
	e := newTestEngine(t)
	out := captureCommandStdout(t, func() {
		if err := runLinks(e, "hi", "", 0.3, 5, false); err != nil {
			t.Fatalf("runLinks: %v", err)
		}
	})
	if !strings.Contains(out, "No latent links found") {
		t.Fatalf("expected no-links message, got: %q", out)
	}
}
