package main

import (
	"strings"
	"testing"

	"github.com/salvadalba/sunder/internal/config"
)

func TestRunConfigShow(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()

	out := captureCommandStdout(t, func() {
		if err := runConfigShow(cfg, false); err != nil {
			t.Fatalf("runConfigShow: %v", err)
		}
	})
	if !strings.Contains(out, "database:") {
		t.Fatalf("expected database path line, got: %q", out)
	}
}
