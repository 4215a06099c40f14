package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vk/proofgridgo/internal/apperrors"
	"github.com/vk/proofgridgo/internal/ctxlog"
)

// Exec runs subprocesses with os/exec. Optional retries cover flaky
// engines (solver timeouts, transient resource exhaustion); a deterministic
// failure simply fails again and costs Retries extra attempts.
type Exec struct {
	// RetryInterval is the initial backoff interval between attempts.
	// Zero means the default.
	RetryInterval time.Duration
}

// NewExec creates a subprocess runner with default retry timing.
func NewExec() *Exec {
	return &Exec{}
}

// Run executes the subprocess described by spec, streaming its stdout into
// spec.Stdout and capturing stderr. A non-zero exit yields a Failure result
// with a nil error. A Go error is returned only when the process could not
// be run at all (bad executable, canceled context).
//
// Each attempt gets a fresh stdout buffer; only the final attempt's output
// reaches spec.Stdout, so a failed attempt never pollutes the artifact
// under production.
func (e *Exec) Run(ctx context.Context, spec Spec) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("unit", spec.Unit, "phase", spec.Phase)

	var exitCode int
	var stdout, stderr bytes.Buffer

	attempt := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		stdout.Reset()
		stderr.Reset()

		cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
		if spec.Stdout != nil {
			cmd.Stdout = &stdout
		}
		cmd.Stderr = &stderr
		cmd.Dir = spec.Dir
		cmd.Env = os.Environ()
		for name, value := range spec.Env {
			cmd.Env = append(cmd.Env, name+"="+value)
		}

		logger.Debug("Invoking external process.", "command", spec.Command, "args", spec.Args)
		err := cmd.Run()
		if err == nil {
			return nil
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ctx.Err() != nil {
				// The process died because the run was canceled, not
				// because the unit failed.
				return backoff.Permanent(ctx.Err())
			}
			exitCode = exitErr.ExitCode()
			logger.Debug("External process exited non-zero.", "exit_code", exitCode)
			return err
		}
		// Spawn-level failure: the command never ran.
		return backoff.Permanent(apperrors.IO(spec.Unit, fmt.Sprintf("spawning %s", spec.Command), err))
	}

	policy := backoff.NewExponentialBackOff()
	if e.RetryInterval > 0 {
		policy.InitialInterval = e.RetryInterval
	}
	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, spec.Retries), ctx))

	flushStdout := func() error {
		if spec.Stdout == nil {
			return nil
		}
		_, copyErr := io.Copy(spec.Stdout, &stdout)
		return copyErr
	}

	if err == nil {
		if err := flushStdout(); err != nil {
			return Result{}, apperrors.IO(spec.Unit, "writing process output", err)
		}
		return Result{Status: Success}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The final attempt's output is still useful for diagnosis.
		if err := flushStdout(); err != nil {
			return Result{}, apperrors.IO(spec.Unit, "writing process output", err)
		}
		return Result{
			Status:   Failure,
			ExitCode: exitCode,
			Message:  failureMessage(spec, exitCode),
			Stderr:   stderr.String(),
		}, nil
	}
	return Result{}, err
}
