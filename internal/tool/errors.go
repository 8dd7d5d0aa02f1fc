package tool

import "fmt"

// ValidationError marks a malformed or incomplete request, detected
// before policy evaluation. Not retried. Err optionally carries the
// underlying cause for errors.Is checks.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }

// PolicyDeniedError marks a policy refusal. Its message always contains
// the "denied by policy" marker.
type PolicyDeniedError struct {
	Reason string
}

func (e *PolicyDeniedError) Error() string { return e.Reason }

// ConfirmationRequiredError marks a request that lacked the confirmation
// its tool requires. Validation class, not a security denial; the caller
// may retry with confirm=true.
type ConfirmationRequiredError struct {
	Reason string
}

func (e *ConfirmationRequiredError) Error() string { return e.Reason }

// ExecutionError wraps a failure inside a tool implementation: I/O
// errors, a missing backup on rollback, external process failures,
// timeouts.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }
func (e *ExecutionError) Unwrap() error { return e.Err }

// AuditWriteError marks a failed audit append. Fatal to success
// reporting: the caller must never observe ok=true for an operation
// whose audit record did not commit.
type AuditWriteError struct {
	Err error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("audit write failed: %v", e.Err)
}
func (e *AuditWriteError) Unwrap() error { return e.Err }
