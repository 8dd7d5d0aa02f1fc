package difftext

import (
	"strings"
	"testing"
)

func TestUnifiedHeaders(t *testing.T) {
	out := Unified("/etc/app.yaml", "a: 1\n", "a: 2\n")
	if !strings.Contains(out, "--- /etc/app.yaml (before)") {
		t.Fatalf("missing before header: %q", out)
	}
	if !strings.Contains(out, "+++ /etc/app.yaml (after)") {
		t.Fatalf("missing after header: %q", out)
	}
}

func TestUnifiedShowsAddedLine(t *testing.T) {
	before := "a:\n  b: 1\n"
	after := "a:\n  b: 1\n  c: 2\n"
	out := Unified("cfg.yaml", before, after)
	if !strings.Contains(out, "+  c: 2") {
		t.Fatalf("expected added line in diff, got %q", out)
	}
	if strings.Contains(out, "-  b: 1") {
		t.Fatalf("unchanged line must not appear as removal: %q", out)
	}
}

func TestUnifiedEqualInputsProduceEmptyDiff(t *testing.T) {
	if out := Unified("x", "same\n", "same\n"); out != "" {
		t.Fatalf("expected empty diff, got %q", out)
	}
}

func TestUnifiedIsDeterministic(t *testing.T) {
	a := Unified("x", "one\ntwo\n", "one\nthree\n")
	b := Unified("x", "one\ntwo\n", "one\nthree\n")
	if a != b {
		t.Fatal("identical inputs must produce identical diffs")
	}
}
