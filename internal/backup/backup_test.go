package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotCopiesBytesExactly(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.yaml")
	content := []byte("a:\n  b: 1\n")
	if err := os.WriteFile(target, content, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Snapshot(target); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	got, err := os.ReadFile(Path(target))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("backup differs: %q vs %q", got, content)
	}
}

func TestSnapshotOverwritesPreviousBackup(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.conf")
	os.WriteFile(Path(target), []byte("stale\n"), 0644)
	os.WriteFile(target, []byte("current\n"), 0644)

	if err := Snapshot(target); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	got, _ := os.ReadFile(Path(target))
	if string(got) != "current\n" {
		t.Fatalf("expected newest snapshot to win, got %q", got)
	}
}

func TestReadBackupMissingReturnsErrNoBackup(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.json")
	_, err := ReadBackup(target)
	if !errors.Is(err, ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}
}

func TestWriteAtomicReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := WriteAtomic(path, []byte("one\n"), 0644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteAtomic(path, []byte("two\n"), 0644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "two\n" {
		t.Fatalf("expected two, got %q", got)
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteAtomic(path, []byte("data\n"), 0600); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
}

func TestSnapshotThenRestoreIsExact(t *testing.T) {
	target := filepath.Join(t.TempDir(), "key.conf")
	original := []byte("key=OLD\n")
	os.WriteFile(target, original, 0644)

	if err := Snapshot(target); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(target, []byte("key=NEW\n"), 0644)

	bak, err := ReadBackup(target)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(target, bak, 0644); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(target)
	if string(got) != string(original) {
		t.Fatalf("restore not byte-exact: %q vs %q", got, original)
	}
}
