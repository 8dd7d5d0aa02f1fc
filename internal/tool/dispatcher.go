package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EricBintner/Halbert-sub002/internal/audit"
	"github.com/EricBintner/Halbert-sub002/internal/cron"
	"github.com/EricBintner/Halbert-sub002/internal/ledger"
	"github.com/EricBintner/Halbert-sub002/internal/policy"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 30 * time.Second

// Config wires the dispatcher's collaborators. All state is explicit;
// there are no package-level stores.
type Config struct {
	// PolicyPath is the policy document, loaded fresh per request.
	PolicyPath string
	// Audit receives exactly one record per request.
	Audit *audit.Store
	// Ledger deduplicates request ids and records run history. Optional.
	Ledger *ledger.Ledger
	// Crontab backs schedule_cron. Optional; defaults to the system store.
	Crontab cron.Store
	// Logger receives state transitions. Optional.
	Logger *slog.Logger
	// Timeout bounds each execution. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Dispatcher routes requests through policy check, execution, and audit.
// Safe for concurrent use.
type Dispatcher struct {
	cfg   Config
	tools map[string]Tool
}

// NewDispatcher builds a dispatcher with the static tool registry:
// write_config and schedule_cron.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Crontab == nil {
		cfg.Crontab = &cron.SystemStore{}
	}

	locks := newPathLocks()
	d := &Dispatcher{cfg: cfg, tools: map[string]Tool{}}
	for _, t := range []Tool{
		&WriteConfigTool{locks: locks},
		&ScheduleCronTool{store: cfg.Crontab},
	} {
		d.tools[t.Name()] = t
	}
	return d
}

// Check loads the current policy and evaluates a request without
// executing or auditing anything.
func (d *Dispatcher) Check(req Request) (policy.Decision, error) {
	doc, err := policy.Load(d.cfg.PolicyPath)
	if err != nil {
		return policy.Decision{}, err
	}
	return policy.Evaluate(doc, req.Tool, req.Mode(), req.Confirm, req.Inputs, policy.SystemEnv()), nil
}

// Dispatch runs one request through the full state machine. Every path
// yields a well-formed Result, and the matching audit record is durably
// appended before the result is returned; an audit append failure forces
// ok=false.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	log := d.cfg.Logger.With("tool", req.Tool, "request_id", req.RequestID, "mode", req.Mode())
	log.Debug("request received")

	outputs, summary, err := d.process(ctx, req)
	ok := err == nil
	if !ok && summary == "" {
		summary = err.Error()
	}
	log.Debug("execution finished", "ok", ok)

	rec := audit.Record{
		Tool:      req.Tool,
		Mode:      req.Mode(),
		RequestID: req.RequestID,
		OK:        ok,
		Summary:   summary,
	}
	if _, aerr := d.cfg.Audit.Append(req.Tool, rec); aerr != nil {
		// Fail closed: success must not be reported without its record.
		log.Error("audit append failed", "error", aerr)
		err = &AuditWriteError{Err: aerr}
		ok = false
	}

	// A duplicate never completes the original run's ledger row.
	if !errors.Is(err, ledger.ErrDuplicateRequest) {
		d.recordRun(log, req, ok, summary)
	}

	if ok {
		log.Info("request succeeded", "summary", summary)
		return Result{OK: true, Outputs: outputs}
	}
	log.Info("request failed", "error", err.Error())
	return Result{Outputs: outputs, Error: err.Error()}
}

// process covers PENDING through SUCCEEDED/FAILED; Dispatch adds the
// audit step.
func (d *Dispatcher) process(ctx context.Context, req Request) (map[string]any, string, error) {
	if req.Tool == "" {
		return nil, "", &ValidationError{Msg: "missing tool name"}
	}
	if req.RequestID == "" {
		return nil, "", &ValidationError{Msg: "missing request_id"}
	}

	// Claim the request id before anything else runs; the ledger insert
	// is atomic, so a concurrent duplicate cannot slip past the check.
	if d.cfg.Ledger != nil {
		err := d.cfg.Ledger.Reserve(ledger.Run{
			RequestID: req.RequestID,
			Tool:      req.Tool,
			Mode:      req.Mode(),
		})
		if errors.Is(err, ledger.ErrDuplicateRequest) {
			return nil, "", &ValidationError{Msg: fmt.Sprintf("duplicate request_id %q", req.RequestID), Err: err}
		}
		if err != nil {
			return nil, "", &ExecutionError{Err: err}
		}
	}

	impl, ok := d.tools[req.Tool]
	if !ok {
		return nil, "", &ValidationError{Msg: fmt.Sprintf("unknown tool %q", req.Tool)}
	}

	doc, err := policy.Load(d.cfg.PolicyPath)
	if err != nil {
		// Fail closed on an unreadable policy.
		return nil, "", &ExecutionError{Err: err}
	}
	decision := policy.Evaluate(doc, req.Tool, req.Mode(), req.Confirm, req.Inputs, policy.SystemEnv())
	if !decision.Allow {
		if decision.NeedsConfirm {
			return nil, "", &ConfirmationRequiredError{Reason: decision.Reason}
		}
		return nil, "", &PolicyDeniedError{Reason: decision.Reason}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	outputs, summary, err := impl.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, "", &ExecutionError{Err: fmt.Errorf("tool %s timed out after %s", req.Tool, d.cfg.Timeout)}
		}
		return nil, "", classify(err)
	}
	return outputs, summary, nil
}

// recordRun finalizes the request's ledger row. A ledger write failure
// is logged but does not alter the result; the audit chain is the
// authoritative record.
func (d *Dispatcher) recordRun(log *slog.Logger, req Request, ok bool, summary string) {
	if d.cfg.Ledger == nil || req.RequestID == "" {
		return
	}
	err := d.cfg.Ledger.Complete(ledger.Run{
		RequestID: req.RequestID,
		OK:        ok,
		Summary:   summary,
	})
	if err != nil {
		log.Warn("ledger record failed", "error", err)
	}
}

// classify wraps untyped tool errors as execution errors.
func classify(err error) error {
	var ve *ValidationError
	var pe *PolicyDeniedError
	var ce *ConfirmationRequiredError
	var ee *ExecutionError
	if errors.As(err, &ve) || errors.As(err, &pe) || errors.As(err, &ce) || errors.As(err, &ee) {
		return err
	}
	return &ExecutionError{Err: err}
}
