package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadInputsInlineJSON(t *testing.T) {
	inputs, err := loadInputs(`{"path": "/etc/app.yaml", "changes": {"a": 1}}`)
	if err != nil {
		t.Fatal(err)
	}
	if inputs["path"] != "/etc/app.yaml" {
		t.Fatalf("unexpected inputs: %v", inputs)
	}
}

func TestLoadInputsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.json")
	os.WriteFile(path, []byte(`{"name": "backup"}`), 0600)

	inputs, err := loadInputs(path)
	if err != nil {
		t.Fatal(err)
	}
	if inputs["name"] != "backup" {
		t.Fatalf("unexpected inputs: %v", inputs)
	}
}

func TestLoadInputsEmptyIsEmptyMap(t *testing.T) {
	inputs, err := loadInputs("")
	if err != nil {
		t.Fatal(err)
	}
	if inputs == nil || len(inputs) != 0 {
		t.Fatalf("expected empty map, got %v", inputs)
	}
}

func TestLoadInputsBadJSON(t *testing.T) {
	if _, err := loadInputs(`{"unclosed": `); err == nil {
		t.Fatal("malformed inline JSON must error")
	}
}

func TestRunCommandFailureReturnsSilentExit(t *testing.T) {
	dir := t.TempDir()
	flagPolicy = filepath.Join(dir, "policy.yaml")
	flagAuditDir = filepath.Join(dir, "audit")
	flagLedger = filepath.Join(dir, "runs.db")
	t.Cleanup(func() {
		flagPolicy, flagAuditDir, flagLedger = "", "", ""
		runTool, runInputs, runRequestID = "", "", ""
	})

	// Rollback without a backup fails, so the result is not ok.
	runTool = "write_config"
	runInputs = `{"path": "` + filepath.Join(dir, "app.yaml") + `", "rollback": true}`
	runRequestID = "r-exit-test"

	runCmd.SetContext(context.Background())
	err := runRun(runCmd, nil)
	if !errors.Is(err, errSilentExit) {
		t.Fatalf("a failed run must return errSilentExit so deferred cleanup runs, got %v", err)
	}
}

