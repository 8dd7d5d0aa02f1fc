package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/EricBintner/Halbert-sub002/internal/cron"
	"github.com/EricBintner/Halbert-sub002/internal/cronblock"
	"github.com/EricBintner/Halbert-sub002/internal/difftext"
)

// ScheduleCronTool manages one labeled crontab entry per job name: a
// "# <name>" header line immediately followed by "<schedule> <command>".
// Re-applying an identical entry is a no-op.
type ScheduleCronTool struct {
	store cron.Store
}

func (t *ScheduleCronTool) Name() string { return "schedule_cron" }

func (t *ScheduleCronTool) Execute(ctx context.Context, req Request) (map[string]any, string, error) {
	name, err := stringInput(req.Inputs, "name")
	if err != nil {
		return nil, "", err
	}
	schedule, err := stringInput(req.Inputs, "schedule")
	if err != nil {
		return nil, "", err
	}
	command, err := stringInput(req.Inputs, "command")
	if err != nil {
		return nil, "", err
	}
	if strings.ContainsAny(name, "\n\r") {
		return nil, "", &ValidationError{Msg: "input \"name\" must be a single line"}
	}
	if fields := strings.Fields(schedule); len(fields) != 5 {
		return nil, "", &ValidationError{Msg: fmt.Sprintf("input \"schedule\" must have 5 fields, got %d", len(fields))}
	}

	header := "# " + name
	line := schedule + " " + command
	entry := header + "\n" + line

	current, err := t.store.Read(ctx)
	if err != nil {
		return nil, "", &ExecutionError{Err: fmt.Errorf("read crontab: %w", err)}
	}

	next, changed := cronblock.Upsert(current, header, line)
	diff := difftext.Unified("crontab", current, next)

	if req.DryRun {
		return map[string]any{"entry": entry, "installed": false, "diff": diff},
			fmt.Sprintf("preview cron entry for %s", name), nil
	}

	if !changed {
		return map[string]any{"entry": entry, "installed": false, "diff": diff},
			fmt.Sprintf("no-op (already present) for %s", name), nil
	}

	if err := t.store.Install(ctx, next); err != nil {
		return nil, "", &ExecutionError{Err: fmt.Errorf("install crontab: %w", err)}
	}

	return map[string]any{"entry": entry, "installed": true, "diff": diff},
		fmt.Sprintf("installed cron entry for %s", name), nil
}
