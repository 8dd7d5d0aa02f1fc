package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/EricBintner/Halbert-sub002/internal/audit"
	"github.com/EricBintner/Halbert-sub002/internal/tool"
)

func newTestServer(t *testing.T, policyYAML string) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	policyPath := filepath.Join(dir, "policy.yaml")
	if policyYAML != "" {
		if err := os.WriteFile(policyPath, []byte(policyYAML), 0600); err != nil {
			t.Fatal(err)
		}
	}

	store := audit.NewStore(filepath.Join(dir, "audit"))
	t.Cleanup(func() { store.Close() })
	os.MkdirAll(filepath.Join(dir, "audit"), 0700)

	d := tool.NewDispatcher(tool.Config{
		PolicyPath: policyPath,
		Audit:      store,
	})
	return New(d, nil), dir
}

func TestWriteConfigDryRunReturnsDiff(t *testing.T) {
	s, dir := newTestServer(t, "")
	target := filepath.Join(dir, "app.yaml")
	os.WriteFile(target, []byte("a: 1\n"), 0644)

	result, out, err := s.handleWriteConfig(context.Background(), &mcpsdk.CallToolRequest{}, WriteConfigInput{
		Path:    target,
		Changes: map[string]any{"b": 2},
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("expected success, got error result: %s", out.Reason)
	}
	if !out.OK || out.Applied {
		t.Fatalf("dry run must be ok and not applied: %+v", out)
	}
	if !strings.Contains(out.Diff, "+b: 2") {
		t.Fatalf("diff missing added line:\n%s", out.Diff)
	}
	if got, _ := os.ReadFile(target); string(got) != "a: 1\n" {
		t.Fatal("dry run must not modify the file")
	}
}

func TestWriteConfigDeniedSurfacesReason(t *testing.T) {
	s, dir := newTestServer(t, `
default_allow: true
tools:
  write_config:
    allow: false
`)
	target := filepath.Join(dir, "app.yaml")
	os.WriteFile(target, []byte("a: 1\n"), 0644)

	result, out, err := s.handleWriteConfig(context.Background(), &mcpsdk.CallToolRequest{}, WriteConfigInput{
		Path:    target,
		Changes: map[string]any{"b": 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for denied request")
	}
	if !strings.Contains(out.Reason, "denied by policy") {
		t.Fatalf("reason must carry the denial marker: %q", out.Reason)
	}
}

func TestCheckDoesNotMutateOrAudit(t *testing.T) {
	s, dir := newTestServer(t, `
default_allow: true
tools:
  write_config:
    allow: false
`)

	_, out, err := s.handleCheck(context.Background(), &mcpsdk.CallToolRequest{}, CheckInput{
		Tool: "write_config",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Allow {
		t.Fatal("expected deny decision")
	}
	if !strings.Contains(out.Reason, "denied by policy") {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}

	if _, err := os.Stat(filepath.Join(dir, "audit", "write_config.jsonl")); !os.IsNotExist(err) {
		t.Fatal("check must not write audit records")
	}
}

func TestRollbackWithoutBackupIsError(t *testing.T) {
	s, dir := newTestServer(t, "")
	target := filepath.Join(dir, "app.yaml")
	os.WriteFile(target, []byte("a: 1\n"), 0644)

	result, out, err := s.handleRollback(context.Background(), &mcpsdk.CallToolRequest{}, RollbackInput{
		Path: target,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError for rollback without backup")
	}
	if !strings.Contains(out.Reason, "backup not found") {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}
}

func TestGeneratedRequestIDsAreUnique(t *testing.T) {
	if requestID("") == requestID("") {
		t.Fatal("generated request ids must differ")
	}
	if requestID("given") != "given" {
		t.Fatal("explicit request id must be kept")
	}
}
