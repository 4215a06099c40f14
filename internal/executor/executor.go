// Package executor is the batch orchestrator: it discovers units, walks
// each unit's fixed artifact chain bottom-up, rebuilds what the staleness
// evaluator says is out of date, and tolerates individual failures without
// destroying prior successful results. Units are independent, so their
// chains run in parallel on a worker pool; ordering is only guaranteed
// within a chain.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/proofgridgo/internal/apperrors"
	"github.com/vk/proofgridgo/internal/bench"
	"github.com/vk/proofgridgo/internal/ctxlog"
	"github.com/vk/proofgridgo/internal/graph"
	"github.com/vk/proofgridgo/internal/invoker"
	"github.com/vk/proofgridgo/internal/metrics"
	"github.com/vk/proofgridgo/internal/store"
	"github.com/vk/proofgridgo/internal/tmpl"
)

// Executor drives one batch run.
type Executor struct {
	bench   *bench.Bench
	graph   *graph.Graph
	store   store.Store
	runner  invoker.Runner
	metrics *metrics.Metrics // may be nil
	board   *Board
}

// New creates an executor for the given bench. The metrics set may be nil
// when no status server is running.
func New(b *bench.Bench, st store.Store, runner invoker.Runner, m *metrics.Metrics) *Executor {
	return &Executor{
		bench:   b,
		graph:   graph.New(b.Layout()),
		store:   st,
		runner:  runner,
		metrics: m,
		board:   NewBoard(),
	}
}

// Board exposes the live per-unit states for the status server.
func (e *Executor) Board() *Board {
	return e.board
}

// Run executes the chains of the selected units. It always returns the
// summary; the error is non-nil iff at least one unit failed, so the
// caller's exit status reflects the batch outcome even though individual
// failures never abort the batch (unless continue_on_error is off).
func (e *Executor) Run(ctx context.Context, units []string) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	e.board.reset(units)
	summary := NewSummary()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := e.bench.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(units) {
		workers = len(units)
	}

	unitChan := make(chan string)
	var wg sync.WaitGroup
	wg.Add(workers)

	logger.Debug("Starting worker pool.", "workers", workers, "units", len(units))
	for i := 0; i < workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			workerLogger := logger.With("worker", workerID)
			for unit := range unitChan {
				e.processUnit(ctxlog.WithLogger(runCtx, workerLogger), unit, summary, cancel)
			}
		}(i)
	}

	for _, unit := range units {
		unitChan <- unit
	}
	close(unitChan)
	wg.Wait()

	if failed := summary.FailedUnits(); len(failed) > 0 {
		return summary, fmt.Errorf("verification failed for %s", strings.Join(failed, ", "))
	}
	return summary, nil
}

// processUnit runs one unit's chain and records its outcome.
func (e *Executor) processUnit(ctx context.Context, unit string, summary *Summary, cancel context.CancelFunc) {
	logger := ctxlog.FromContext(ctx).With("unit", unit)

	if ctx.Err() != nil {
		logger.Warn("Run canceled, unit not attempted.")
		e.board.set(unit, StateAborted)
		summary.record(UnitResult{Unit: unit, Outcome: OutcomeAborted, Err: ctx.Err()})
		return
	}

	e.board.set(unit, StateRunning)
	rebuilt, err := e.runChain(ctxlog.WithLogger(ctx, logger), unit)

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		logger.Warn("Unit interrupted.", "error", err)
		e.board.set(unit, StateAborted)
		summary.record(UnitResult{Unit: unit, Outcome: OutcomeAborted, Err: err})
	case err != nil:
		logger.Error("Unit verification failed.", "error", err)
		e.board.set(unit, StateFailed)
		summary.record(UnitResult{Unit: unit, Outcome: OutcomeFailed, Err: err})
		if e.metrics != nil {
			e.metrics.UnitsFailed.Inc()
		}
		if !e.bench.ContinueOnError {
			cancel()
		}
	case rebuilt:
		logger.Info("Unit verified.")
		e.board.set(unit, StateVerified)
		summary.record(UnitResult{Unit: unit, Outcome: OutcomeVerified})
		if e.metrics != nil {
			e.metrics.UnitsVerified.Inc()
		}
	default:
		logger.Info("Unit already verified, skipped.")
		e.board.set(unit, StateSkipped)
		summary.record(UnitResult{Unit: unit, Outcome: OutcomeSkipped})
		if e.metrics != nil {
			e.metrics.UnitsSkipped.Inc()
		}
	}
}

// runChain walks one unit's chain bottom-up, rebuilding stale artifacts.
// It reports whether anything was rebuilt. The first failure terminates
// this unit's chain for the run; the sentinel stays absent or stale, which
// is the durable record of the failure.
func (e *Executor) runChain(ctx context.Context, unit string) (bool, error) {
	chain := e.graph.Chain(unit)

	if err := e.checkInputs(chain); err != nil {
		return false, err
	}

	rebuilt := false

	stale, err := needsRebuild(e.store, chain.IntermediateForm, chain.Producers(store.IntermediateForm))
	if err != nil {
		return false, err
	}
	if stale {
		if err := e.generate(ctx, chain); err != nil {
			return false, err
		}
		rebuilt = true
	}

	stale, err = needsRebuild(e.store, chain.JobConfig, chain.Producers(store.JobConfig))
	if err != nil {
		return false, err
	}
	if stale {
		if err := e.render(ctx, chain); err != nil {
			return false, err
		}
		rebuilt = true
	}

	stale, err = needsRebuild(e.store, chain.Sentinel, chain.Producers(store.Sentinel))
	if err != nil {
		return false, err
	}
	if stale {
		if err := e.check(ctx, chain); err != nil {
			return false, err
		}
		rebuilt = true
	}

	return rebuilt, nil
}

// checkInputs verifies the hand-authored inputs exist before any staleness
// decision. A missing input is a build failure for the unit, never a skip.
func (e *Executor) checkInputs(chain *graph.Chain) error {
	inputs := make([]store.Artifact, 0, len(chain.Shared)+2)
	inputs = append(inputs, chain.Definition, chain.Template)
	inputs = append(inputs, chain.Shared...)

	for _, input := range inputs {
		_, exists, err := e.store.Stat(input.Path)
		if err != nil {
			return apperrors.IO(chain.Unit, "stat "+input.Path, err)
		}
		if !exists {
			return apperrors.IO(chain.Unit,
				fmt.Sprintf("missing %s %s", input.Kind, input.Path), errMissingInput)
		}
	}
	return nil
}

var errMissingInput = errors.New("input does not exist")

// subs returns the placeholder substitutions for one unit.
func (e *Executor) subs(chain *graph.Chain) map[string]string {
	return map[string]string{
		"unit":   chain.Unit,
		"outdir": e.graph.OutDir(chain.Unit),
		"job":    chain.JobConfig.Path,
	}
}

// generate produces the intermediate form by running the external
// generator with its stdout scoped to the artifact: a failed generation
// commits nothing.
func (e *Executor) generate(ctx context.Context, chain *graph.Chain) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Generating intermediate form.", "path", chain.IntermediateForm.Path)

	args, err := tmpl.RenderArgs(chain.Unit, e.bench.Generator.Args, e.subs(chain))
	if err != nil {
		return err
	}

	e.countInvocation("generate")
	return e.store.Write(chain.IntermediateForm.Path, func(w io.Writer) error {
		result, err := e.runner.Run(ctx, invoker.Spec{
			Unit:    chain.Unit,
			Phase:   "generate",
			Command: e.bench.Generator.Command,
			Args:    args,
			Env:     e.bench.Generator.Env,
			Dir:     e.bench.Dir,
			Stdout:  w,
			Retries: e.bench.Generator.Retries,
		})
		if err != nil {
			return err
		}
		if result.Status == invoker.Failure {
			if result.Stderr != "" {
				logger.Debug("Generator stderr.", "stderr", result.Stderr)
			}
			return apperrors.Generation(chain.Unit, result.Message)
		}
		return nil
	})
}

// render instantiates the job template for the unit and writes the job
// configuration artifact.
func (e *Executor) render(ctx context.Context, chain *graph.Chain) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Rendering job configuration.", "path", chain.JobConfig.Path)

	text, err := e.store.Read(chain.Template.Path)
	if err != nil {
		return apperrors.IO(chain.Unit, "reading template", err)
	}

	// {{job}} is an argv-only placeholder; inside the template it would be
	// self-referential.
	subs := e.subs(chain)
	delete(subs, "job")

	rendered, err := tmpl.Render(chain.Unit, string(text), subs)
	if err != nil {
		return err
	}

	return e.store.Write(chain.JobConfig.Path, func(w io.Writer) error {
		_, err := io.WriteString(w, rendered)
		return err
	})
}

// check invokes the model checker on the job configuration. Its output is
// kept in the unit's output directory for diagnosis regardless of outcome.
// On success the sentinel is written whether or not the engine created its
// own, keeping the contract engine-agnostic.
func (e *Executor) check(ctx context.Context, chain *graph.Chain) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running model checker.", "job", chain.JobConfig.Path)

	args, err := tmpl.RenderArgs(chain.Unit, e.bench.Checker.Args, e.subs(chain))
	if err != nil {
		return err
	}

	var result invoker.Result
	logPath := filepath.Join(e.graph.OutDir(chain.Unit), "engine.log")
	e.countInvocation("check")
	err = e.store.Write(logPath, func(w io.Writer) error {
		r, err := e.runner.Run(ctx, invoker.Spec{
			Unit:    chain.Unit,
			Phase:   "check",
			Command: e.bench.Checker.Command,
			Args:    args,
			Env:     e.bench.Checker.Env,
			Dir:     e.bench.Dir,
			Stdout:  w,
			Retries: e.bench.Checker.Retries,
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return err
	}

	if result.Status == invoker.Failure {
		if result.Stderr != "" {
			logger.Debug("Checker stderr.", "stderr", result.Stderr)
		}
		return apperrors.Verification(chain.Unit, result.Message)
	}

	return e.store.Write(chain.Sentinel.Path, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "verified %s at %s\n", chain.Unit, time.Now().Format(time.RFC3339))
		return err
	})
}

func (e *Executor) countInvocation(phase string) {
	if e.metrics != nil {
		e.metrics.Invocations.WithLabelValues(phase).Inc()
	}
}
