package mcp

import (
	"context"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/EricBintner/Halbert-sub002/internal/tool"
)

// --- Input/Output types ---

// WriteConfigInput defines parameters for the halbert_write_config tool.
type WriteConfigInput struct {
	Path      string         `json:"path" jsonschema:"target config file path"`
	Changes   map[string]any `json:"changes" jsonschema:"structured changes to deep-merge into the file"`
	Backup    *bool          `json:"backup,omitempty" jsonschema:"snapshot the file to <path>.bak before overwriting (default true)"`
	DryRun    bool           `json:"dry_run,omitempty" jsonschema:"preview the diff without writing"`
	Confirm   bool           `json:"confirm,omitempty" jsonschema:"confirmation flag for policies that require it"`
	RequestID string         `json:"request_id,omitempty" jsonschema:"unique request id; generated when omitted"`
}

// MutationOutput is the shared result shape for mutating tools.
type MutationOutput struct {
	OK      bool   `json:"ok"`
	Applied bool   `json:"applied"`
	Diff    string `json:"diff,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ScheduleCronInput defines parameters for the halbert_schedule_cron tool.
type ScheduleCronInput struct {
	Name      string `json:"name" jsonschema:"job name; becomes the '# <name>' header comment"`
	Schedule  string `json:"schedule" jsonschema:"five-field cron schedule, e.g. '0 2 * * *'"`
	Command   string `json:"command" jsonschema:"command line to run"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"preview the diff without installing"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema:"confirmation flag for policies that require it"`
	RequestID string `json:"request_id,omitempty" jsonschema:"unique request id; generated when omitted"`
}

// CronOutput is the halbert_schedule_cron result.
type CronOutput struct {
	OK        bool   `json:"ok"`
	Installed bool   `json:"installed"`
	Entry     string `json:"entry,omitempty"`
	Diff      string `json:"diff,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RollbackInput defines parameters for the halbert_rollback tool.
type RollbackInput struct {
	Path      string `json:"path" jsonschema:"config file to restore from its .bak snapshot"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema:"confirmation flag for policies that require it"`
	RequestID string `json:"request_id,omitempty" jsonschema:"unique request id; generated when omitted"`
}

// CheckInput defines parameters for the halbert_check tool.
type CheckInput struct {
	Tool   string         `json:"tool" jsonschema:"tool name (write_config/schedule_cron)"`
	Inputs map[string]any `json:"inputs,omitempty" jsonschema:"inputs the policy conditions are checked against"`
}

// CheckOutput contains the policy decision.
type CheckOutput struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}

// --- Handlers ---

func (s *Server) handleWriteConfig(ctx context.Context, req *mcpsdk.CallToolRequest, input WriteConfigInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	inputs := map[string]any{
		"path":    input.Path,
		"changes": input.Changes,
	}
	if input.Backup != nil {
		inputs["backup"] = *input.Backup
	}

	res := s.dispatcher.Dispatch(ctx, tool.Request{
		Tool:      "write_config",
		RequestID: requestID(input.RequestID),
		DryRun:    input.DryRun,
		Confirm:   input.Confirm,
		Inputs:    inputs,
	})
	return mutationResult(res)
}

func (s *Server) handleScheduleCron(ctx context.Context, req *mcpsdk.CallToolRequest, input ScheduleCronInput) (*mcpsdk.CallToolResult, CronOutput, error) {
	res := s.dispatcher.Dispatch(ctx, tool.Request{
		Tool:      "schedule_cron",
		RequestID: requestID(input.RequestID),
		DryRun:    input.DryRun,
		Confirm:   input.Confirm,
		Inputs: map[string]any{
			"name":     input.Name,
			"schedule": input.Schedule,
			"command":  input.Command,
		},
	})

	if !res.OK {
		return &mcpsdk.CallToolResult{IsError: true}, CronOutput{Reason: res.Error}, nil
	}
	installed, _ := res.Outputs["installed"].(bool)
	entry, _ := res.Outputs["entry"].(string)
	diff, _ := res.Outputs["diff"].(string)
	return nil, CronOutput{OK: true, Installed: installed, Entry: entry, Diff: diff}, nil
}

func (s *Server) handleRollback(ctx context.Context, req *mcpsdk.CallToolRequest, input RollbackInput) (*mcpsdk.CallToolResult, MutationOutput, error) {
	res := s.dispatcher.Dispatch(ctx, tool.Request{
		Tool:      "write_config",
		RequestID: requestID(input.RequestID),
		Confirm:   input.Confirm,
		Inputs: map[string]any{
			"path":     input.Path,
			"rollback": true,
		},
	})
	return mutationResult(res)
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	decision, err := s.dispatcher.Check(tool.Request{
		Tool:   input.Tool,
		Inputs: input.Inputs,
	})
	if err != nil {
		return nil, CheckOutput{}, err
	}
	return nil, CheckOutput{Allow: decision.Allow, Reason: decision.Reason}, nil
}

// --- Helpers ---

func requestID(given string) string {
	if given != "" {
		return given
	}
	return uuid.NewString()
}

func mutationResult(res tool.Result) (*mcpsdk.CallToolResult, MutationOutput, error) {
	if !res.OK {
		return &mcpsdk.CallToolResult{IsError: true}, MutationOutput{Reason: res.Error}, nil
	}
	applied, _ := res.Outputs["applied"].(bool)
	diff, _ := res.Outputs["diff"].(string)
	return nil, MutationOutput{OK: true, Applied: applied, Diff: diff}, nil
}
