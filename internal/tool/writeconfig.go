package tool

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/EricBintner/Halbert-sub002/internal/backup"
	"github.com/EricBintner/Halbert-sub002/internal/confval"
	"github.com/EricBintner/Halbert-sub002/internal/difftext"
)

// WriteConfigTool merges structured changes into a config file (YAML,
// JSON, or INI-like), previewing as a unified diff and applying through
// snapshot-then-atomic-overwrite. With rollback=true it restores the
// file from its .bak snapshot instead.
type WriteConfigTool struct {
	locks *pathLocks
}

func (t *WriteConfigTool) Name() string { return "write_config" }

func (t *WriteConfigTool) Execute(ctx context.Context, req Request) (map[string]any, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &ExecutionError{Err: err}
	}
	path, err := stringInput(req.Inputs, "path")
	if err != nil {
		return nil, "", err
	}
	doRollback, err := boolInput(req.Inputs, "rollback", false)
	if err != nil {
		return nil, "", err
	}
	if doRollback {
		return t.rollback(ctx, path, req.DryRun)
	}
	return t.merge(ctx, path, req)
}

func (t *WriteConfigTool) merge(ctx context.Context, path string, req Request) (map[string]any, string, error) {
	changes, err := mapInput(req.Inputs, "changes")
	if err != nil {
		return nil, "", err
	}
	withBackup, err := boolInput(req.Inputs, "backup", true)
	if err != nil {
		return nil, "", err
	}

	current, fileMode, exists, err := readTarget(path)
	if err != nil {
		return nil, "", &ExecutionError{Err: err}
	}

	format, err := confval.Detect(path, current)
	if err != nil {
		return nil, "", &ExecutionError{Err: err}
	}

	base := confval.Map()
	if exists {
		base, err = confval.Parse(format, current)
		if err != nil {
			return nil, "", &ExecutionError{Err: fmt.Errorf("parse %s: %w", path, err)}
		}
	}

	changeVal, err := confval.FromGo(changes)
	if err != nil {
		return nil, "", &ValidationError{Msg: fmt.Sprintf("invalid changes: %v", err)}
	}

	merged := confval.Merge(base, changeVal)
	after, err := confval.Render(format, merged)
	if err != nil {
		return nil, "", &ExecutionError{Err: fmt.Errorf("render %s: %w", path, err)}
	}

	diff := difftext.Unified(path, string(current), string(after))
	if req.DryRun {
		return map[string]any{"diff": diff, "applied": false},
			fmt.Sprintf("preview changes for %s", path), nil
	}

	if string(current) == string(after) {
		return map[string]any{"diff": diff, "applied": false},
			fmt.Sprintf("no-op (already up to date) for %s", path), nil
	}

	unlock := t.locks.lock(path)
	defer unlock()

	// Last cancellation point: once the overwrite starts the operation
	// runs to completion.
	if err := ctx.Err(); err != nil {
		return nil, "", &ExecutionError{Err: err}
	}

	if withBackup && exists {
		if err := backup.Snapshot(path); err != nil {
			return nil, "", &ExecutionError{Err: err}
		}
	}
	if err := backup.WriteAtomic(path, after, fileMode); err != nil {
		return nil, "", &ExecutionError{Err: fmt.Errorf("write %s: %w", path, err)}
	}

	return map[string]any{"diff": diff, "applied": true},
		fmt.Sprintf("applied changes for %s", path), nil
}

func (t *WriteConfigTool) rollback(ctx context.Context, path string, dryRun bool) (map[string]any, string, error) {
	saved, err := backup.ReadBackup(path)
	if err != nil {
		return nil, "", &ExecutionError{Err: err}
	}

	current, fileMode, _, err := readTarget(path)
	if err != nil {
		return nil, "", &ExecutionError{Err: err}
	}

	diff := difftext.Unified(path, string(current), string(saved))
	if dryRun {
		return map[string]any{"diff": diff, "applied": false},
			fmt.Sprintf("preview rollback for %s", path), nil
	}

	unlock := t.locks.lock(path)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, "", &ExecutionError{Err: err}
	}

	if err := backup.WriteAtomic(path, saved, fileMode); err != nil {
		return nil, "", &ExecutionError{Err: fmt.Errorf("restore %s: %w", path, err)}
	}

	return map[string]any{"diff": diff, "applied": true},
		fmt.Sprintf("rollback applied for %s", path), nil
}

// readTarget returns a file's bytes and mode, tolerating absence: a
// missing target reads as empty with a default mode.
func readTarget(path string) (data []byte, mode fs.FileMode, exists bool, err error) {
	mode = 0644
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mode, false, nil
		}
		return nil, 0, false, fmt.Errorf("read %s: %w", path, err)
	}
	if info, serr := os.Stat(path); serr == nil {
		mode = info.Mode().Perm()
	}
	return data, mode, true, nil
}
