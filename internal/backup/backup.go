// Package backup snapshots target files before destructive writes and
// restores them on rollback. All writes go through write-to-temp-then-rename
// so a crash mid-write never leaves a partially written file visible.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoBackup is returned by ReadBackup when no <path>.bak exists.
var ErrNoBackup = errors.New("backup not found")

// Suffix is appended to a target path to form its backup path.
const Suffix = ".bak"

// Path returns the backup path for a target file.
func Path(target string) string { return target + Suffix }

// Snapshot copies the target file's bytes to <target>.bak, overwriting any
// previous backup. The snapshot is durable (fsynced) before Snapshot
// returns, so the caller may overwrite the original afterwards.
func Snapshot(target string) error {
	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("backup: read %s: %w", target, err)
	}
	mode := fs.FileMode(0600)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}
	if err := WriteAtomic(Path(target), data, mode); err != nil {
		return fmt.Errorf("backup: snapshot %s: %w", target, err)
	}
	return nil
}

// ReadBackup returns the bytes of <target>.bak, or ErrNoBackup if the
// backup does not exist.
func ReadBackup(target string) ([]byte, error) {
	data, err := os.ReadFile(Path(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoBackup, Path(target))
		}
		return nil, fmt.Errorf("backup: read %s: %w", Path(target), err)
	}
	return data, nil
}

// WriteAtomic writes data to path via a temp file in the same directory,
// fsyncs it, renames it over the target, and fsyncs the directory. Either
// the old content or the complete new content is visible, never a partial
// write.
func WriteAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".halbert-write-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	// Persist the rename itself.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
