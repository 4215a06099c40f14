// Package invoker runs the external generator and model-checking engine as
// subprocesses. A non-zero exit status is an ordinary Failure result, never
// a Go error: the caller decides whether the batch continues, and one unit's
// failed invocation must not abort its siblings.
package invoker

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Status classifies the outcome of one external invocation.
type Status int

const (
	Success Status = iota
	Failure
)

// Result is the outcome of invoking an external process for one artifact.
// It is never persisted: the sentinel's existence is the durable record.
type Result struct {
	Status   Status
	ExitCode int
	Message  string // timestamped human-readable line, set on failure
	Stderr   string // captured standard error, for diagnostics
}

// Spec describes one external invocation.
type Spec struct {
	Unit    string            // unit the invocation belongs to
	Phase   string            // "generate" or "check", used in reporting
	Command string            // executable
	Args    []string          // fully rendered argument vector
	Env     map[string]string // extra environment, appended to the parent's
	Dir     string            // working directory, empty for the parent's
	Stdout  io.Writer         // destination for standard output, may be nil
	Retries uint64            // extra attempts after a failed one, default 0
}

// Runner is the contract the orchestrator invokes external processes
// through. Tests substitute a recording fake.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// failureMessage formats the single timestamped line reported for a failed
// phase, identifying the unit and phase.
func failureMessage(spec Spec, exitCode int) string {
	return fmt.Sprintf("%s unit %s: %s failed with exit status %d",
		time.Now().Format(time.RFC3339), spec.Unit, spec.Phase, exitCode)
}
