package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/proofgridgo/internal/apperrors"
	"github.com/vk/proofgridgo/internal/bench"
	"github.com/vk/proofgridgo/internal/invoker"
	"github.com/vk/proofgridgo/internal/store"
)

// fakeRunner records every invocation and fails the (unit, phase) pairs it
// is told to.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string // "unit/phase"
	fail  map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: make(map[string]bool)}
}

func (f *fakeRunner) Run(ctx context.Context, spec invoker.Spec) (invoker.Result, error) {
	key := spec.Unit + "/" + spec.Phase
	f.mu.Lock()
	f.calls = append(f.calls, key)
	fail := f.fail[key]
	f.mu.Unlock()

	if spec.Stdout != nil {
		if _, err := io.WriteString(spec.Stdout, "output for "+spec.Unit+"\n"); err != nil {
			return invoker.Result{}, err
		}
	}
	if fail {
		return invoker.Result{
			Status:   invoker.Failure,
			ExitCode: 1,
			Message:  fmt.Sprintf("unit %s: %s failed with exit status 1", spec.Unit, spec.Phase),
		}, nil
	}
	return invoker.Result{Status: invoker.Success}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRunner) callsFor(unit string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, call := range f.calls {
		if call == unit+"/generate" || call == unit+"/check" {
			out = append(out, call)
		}
	}
	return out
}

func (f *fakeRunner) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// harness wires a bench over an in-memory store with pre-seeded inputs.
type harness struct {
	bench  *bench.Bench
	store  *store.Mem
	runner *fakeRunner
	exec   *Executor
	units  []string
}

func newHarness(t *testing.T, units ...string) *harness {
	t.Helper()

	b := &bench.Bench{
		Dir:             ".",
		UnitsDir:        "defs",
		UnitPrefix:      "formal_",
		UnitExt:         ".py",
		Shared:          []string{"core.py"},
		Template:        "formal.sby",
		OutputDir:       "/out",
		IntermediateExt: "il",
		JobExt:          "sby",
		SentinelName:    "PASS",
		Generator:       bench.Command{Command: "gen", Args: []string{"--insn", "{{unit}}"}},
		Checker:         bench.Command{Command: "check", Args: []string{"-f", "{{job}}"}},
		Workers:         2,
		ContinueOnError: true,
	}

	st := store.NewMem()
	seed := func(path, content string) {
		require.NoError(t, st.Write(path, func(w io.Writer) error {
			_, err := io.WriteString(w, content)
			return err
		}))
	}
	seed("core.py", "shared core module")
	seed("formal.sby", "[options]\nread {{unit}}.il\nworkdir {{outdir}}\n")
	for _, unit := range units {
		seed("defs/formal_"+unit+".py", "definition of "+unit)
	}

	runner := newFakeRunner()
	return &harness{
		bench:  b,
		store:  st,
		runner: runner,
		exec:   New(b, st, runner, nil),
		units:  units,
	}
}

func (h *harness) run(t *testing.T) (*Summary, error) {
	t.Helper()
	return h.exec.Run(context.Background(), h.units)
}

func (h *harness) sentinelExists(t *testing.T, unit string) bool {
	t.Helper()
	_, exists, err := h.store.Stat("/out/" + unit + "/PASS")
	require.NoError(t, err)
	return exists
}

func TestRun_FullBuildProducesChain(t *testing.T) {
	h := newHarness(t, "add")

	summary, err := h.run(t)
	require.NoError(t, err)

	result, ok := summary.Result("add")
	require.True(t, ok)
	assert.Equal(t, OutcomeVerified, result.Outcome)

	// The whole chain exists.
	for _, path := range []string{"/out/add/add.il", "/out/add/add.sby", "/out/add/PASS"} {
		_, exists, err := h.store.Stat(path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}

	// The job config was rendered with no residual placeholders.
	job, err := h.store.Read("/out/add/add.sby")
	require.NoError(t, err)
	assert.Equal(t, "[options]\nread add.il\nworkdir /out/add\n", string(job))

	// One generator call, one checker call.
	assert.Equal(t, []string{"add/generate", "add/check"}, h.runner.callsFor("add"))
}

func TestRun_Idempotence(t *testing.T) {
	h := newHarness(t, "add", "sub", "neg")

	_, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, 6, h.runner.callCount(), "expected generate+check per unit")

	h.runner.resetCalls()
	summary, err := h.run(t)
	require.NoError(t, err)

	assert.Zero(t, h.runner.callCount(), "second run must invoke no external process")
	for _, unit := range h.units {
		result, ok := summary.Result(unit)
		require.True(t, ok)
		assert.Equal(t, OutcomeSkipped, result.Outcome, unit)
	}
}

func TestRun_StalenessPropagation(t *testing.T) {
	h := newHarness(t, "add", "sub")
	_, err := h.run(t)
	require.NoError(t, err)
	h.runner.resetCalls()

	// Touch add's definition: its whole chain is rebuilt, sub is untouched.
	require.NoError(t, h.store.Touch("defs/formal_add.py"))

	summary, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"add/generate", "add/check"}, h.runner.callsFor("add"))
	assert.Empty(t, h.runner.callsFor("sub"))

	addResult, _ := summary.Result("add")
	subResult, _ := summary.Result("sub")
	assert.Equal(t, OutcomeVerified, addResult.Outcome)
	assert.Equal(t, OutcomeSkipped, subResult.Outcome)
}

func TestRun_SharedInputPropagation(t *testing.T) {
	h := newHarness(t, "add", "sub", "neg")
	_, err := h.run(t)
	require.NoError(t, err)
	h.runner.resetCalls()

	// Touch the shared core input: every unit's chain is rebuilt.
	require.NoError(t, h.store.Touch("core.py"))

	summary, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, 6, h.runner.callCount())
	for _, unit := range h.units {
		result, _ := summary.Result(unit)
		assert.Equal(t, OutcomeVerified, result.Outcome, unit)
	}
}

func TestRun_TemplateChangeRebuildsJobConfigOnly(t *testing.T) {
	h := newHarness(t, "add")
	_, err := h.run(t)
	require.NoError(t, err)
	h.runner.resetCalls()

	require.NoError(t, h.store.Touch("formal.sby"))

	_, err = h.run(t)
	require.NoError(t, err)

	// The intermediate form is still fresh; only render and check rerun.
	assert.Equal(t, []string{"add/check"}, h.runner.callsFor("add"))
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	h := newHarness(t, "a", "b", "c")
	h.runner.fail["b/generate"] = true

	summary, err := h.run(t)
	require.Error(t, err, "aggregate outcome must reflect the failure")
	assert.ErrorContains(t, err, "b")

	// A and C ran their full chains and have sentinels.
	for _, unit := range []string{"a", "c"} {
		result, _ := summary.Result(unit)
		assert.Equal(t, OutcomeVerified, result.Outcome, unit)
		assert.True(t, h.sentinelExists(t, unit), unit)
		assert.Equal(t, []string{unit + "/generate", unit + "/check"}, h.runner.callsFor(unit))
	}

	// B failed at generation: no checker call, no sentinel, no
	// intermediate form committed.
	bResult, _ := summary.Result("b")
	assert.Equal(t, OutcomeFailed, bResult.Outcome)
	assert.ErrorIs(t, bResult.Err, apperrors.ErrGeneration)
	assert.Equal(t, []string{"b/generate"}, h.runner.callsFor("b"))
	assert.False(t, h.sentinelExists(t, "b"))
	_, exists, statErr := h.store.Stat("/out/b/b.il")
	require.NoError(t, statErr)
	assert.False(t, exists, "failed generation must not commit the artifact")

	assert.Equal(t, []string{"b"}, summary.FailedUnits())
}

func TestRun_SelectiveResume(t *testing.T) {
	h := newHarness(t, "a", "b", "c")
	h.runner.fail["b/generate"] = true

	_, err := h.run(t)
	require.Error(t, err)

	// Fix b and resume selectively.
	delete(h.runner.fail, "b/generate")
	h.runner.resetCalls()

	summary, err := h.exec.Run(context.Background(), []string{"b"})
	require.NoError(t, err)

	bResult, _ := summary.Result("b")
	assert.Equal(t, OutcomeVerified, bResult.Outcome)
	assert.True(t, h.sentinelExists(t, "b"))

	// Only b's processes ran; a and c were not touched at all.
	assert.Equal(t, []string{"b/generate", "b/check"}, h.runner.callsFor("b"))
	assert.Equal(t, 2, h.runner.callCount())
}

func TestRun_CheckerFailureLeavesUnitStale(t *testing.T) {
	h := newHarness(t, "a")
	h.runner.fail["a/check"] = true

	summary, err := h.run(t)
	require.Error(t, err)

	result, _ := summary.Result("a")
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, apperrors.ErrVerification)
	assert.False(t, h.sentinelExists(t, "a"))

	// Rerunning after the engine is fixed retries only the check phase:
	// the intermediate form and job config are still fresh.
	delete(h.runner.fail, "a/check")
	h.runner.resetCalls()

	_, err = h.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/check"}, h.runner.callsFor("a"))
	assert.True(t, h.sentinelExists(t, "a"))
}

func TestRun_MissingInputFailsUnit(t *testing.T) {
	// Only a has a definition; b is requested but was never authored.
	h := newHarness(t, "a")

	summary, err := h.exec.Run(context.Background(), []string{"a", "b"})
	require.Error(t, err)

	aResult, _ := summary.Result("a")
	assert.Equal(t, OutcomeVerified, aResult.Outcome)

	bResult, _ := summary.Result("b")
	assert.Equal(t, OutcomeFailed, bResult.Outcome)
	assert.ErrorIs(t, bResult.Err, apperrors.ErrIO)
}

func TestRun_FailFastAbortsRemainingUnits(t *testing.T) {
	h := newHarness(t, "a", "b", "c")
	h.bench.Workers = 1
	h.bench.ContinueOnError = false
	h.runner.fail["a/generate"] = true

	summary, err := h.run(t)
	require.Error(t, err)

	aResult, _ := summary.Result("a")
	assert.Equal(t, OutcomeFailed, aResult.Outcome)

	// With a single worker the remaining units are never attempted.
	for _, unit := range []string{"b", "c"} {
		result, ok := summary.Result(unit)
		require.True(t, ok, unit)
		assert.Equal(t, OutcomeAborted, result.Outcome, unit)
		assert.Empty(t, h.runner.callsFor(unit))
	}
}

func TestRun_UnresolvedTemplatePlaceholderFailsUnit(t *testing.T) {
	h := newHarness(t, "a")
	require.NoError(t, h.store.Write("formal.sby", func(w io.Writer) error {
		_, err := io.WriteString(w, "read {{unit}}.il\nengine {{solver}}\n")
		return err
	}))

	summary, err := h.run(t)
	require.Error(t, err)

	result, _ := summary.Result("a")
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, apperrors.ErrTemplate)
	assert.False(t, h.sentinelExists(t, "a"))
}

func TestRun_SentinelIsNewerThanJobConfig(t *testing.T) {
	h := newHarness(t, "a")
	_, err := h.run(t)
	require.NoError(t, err)

	jobTime, _, err := h.store.Stat("/out/a/a.sby")
	require.NoError(t, err)
	sentinelTime, _, err := h.store.Stat("/out/a/PASS")
	require.NoError(t, err)
	assert.True(t, sentinelTime.After(jobTime))
}
