package executor

import (
	"sort"
	"sync"
)

// Outcome classifies what happened to one unit during a batch run.
type Outcome int

const (
	// OutcomeVerified means the chain was rebuilt and the checker passed.
	OutcomeVerified Outcome = iota
	// OutcomeSkipped means the sentinel was fresh; no process was invoked.
	OutcomeSkipped
	// OutcomeFailed means a phase of the chain failed; the sentinel was
	// left absent or stale, so the next run retries the unit.
	OutcomeFailed
	// OutcomeAborted means the unit was never attempted because the run
	// was canceled (fail-fast or operator interrupt).
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// UnitResult is the terminal outcome for one unit.
type UnitResult struct {
	Unit    string
	Outcome Outcome
	Err     error
}

// Summary aggregates per-unit results across workers.
type Summary struct {
	mu      sync.Mutex
	results map[string]UnitResult
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{results: make(map[string]UnitResult)}
}

func (s *Summary) record(r UnitResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.Unit] = r
}

// Result returns the recorded result for a unit.
func (s *Summary) Result(unit string) (UnitResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[unit]
	return r, ok
}

// Results returns a copy of all recorded results.
func (s *Summary) Results() map[string]UnitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]UnitResult, len(s.results))
	for unit, r := range s.results {
		out[unit] = r
	}
	return out
}

// FailedUnits returns the sorted identifiers of failed units.
func (s *Summary) FailedUnits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []string
	for unit, r := range s.results {
		if r.Outcome == OutcomeFailed {
			failed = append(failed, unit)
		}
	}
	sort.Strings(failed)
	return failed
}

// Count returns the number of units with the given outcome.
func (s *Summary) Count(outcome Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}
