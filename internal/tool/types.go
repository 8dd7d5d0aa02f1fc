// Package tool defines the request/result contract, the error taxonomy,
// the tool registry, and the dispatcher that gates every mutation behind
// policy evaluation and a durable audit append.
package tool

import (
	"context"
	"fmt"

	"github.com/EricBintner/Halbert-sub002/internal/policy"
)

// Request is one tool invocation. It is immutable once created.
type Request struct {
	Tool      string         `json:"tool"`
	RequestID string         `json:"request_id"`
	DryRun    bool           `json:"dry_run"`
	Confirm   bool           `json:"confirm"`
	Inputs    map[string]any `json:"inputs"`
}

// Mode returns the execution mode implied by the dry_run flag.
func (r Request) Mode() string {
	if r.DryRun {
		return policy.ModeDryRun
	}
	return policy.ModeApply
}

// Result is the caller-facing outcome. ok=false never implies a partial
// mutation: a failed apply leaves either the intact original or a durable
// backup.
type Result struct {
	OK      bool           `json:"ok"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Tool is one policy-gated operation. Execute returns its outputs plus a
// one-line summary for the audit record; it must not mutate anything when
// the request is a dry run.
type Tool interface {
	Name() string
	Execute(ctx context.Context, req Request) (outputs map[string]any, summary string, err error)
}

// stringInput fetches a required string input.
func stringInput(inputs map[string]any, key string) (string, error) {
	v, ok := inputs[key]
	if !ok {
		return "", &ValidationError{Msg: fmt.Sprintf("missing required input %q", key)}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ValidationError{Msg: fmt.Sprintf("input %q must be a non-empty string", key)}
	}
	return s, nil
}

// boolInput fetches an optional bool input with a default.
func boolInput(inputs map[string]any, key string, def bool) (bool, error) {
	v, ok := inputs[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ValidationError{Msg: fmt.Sprintf("input %q must be a boolean", key)}
	}
	return b, nil
}

// mapInput fetches a required mapping input.
func mapInput(inputs map[string]any, key string) (map[string]any, error) {
	v, ok := inputs[key]
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("missing required input %q", key)}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("input %q must be a mapping", key)}
	}
	return m, nil
}
