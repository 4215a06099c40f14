package executor

import "sync"

// State is the live status of a unit, published on the status server while
// a batch runs.
type State string

const (
	StatePending  State = "pending"
	StateRunning  State = "running"
	StateVerified State = "verified"
	StateSkipped  State = "skipped"
	StateFailed   State = "failed"
	StateAborted  State = "aborted"
)

// Board tracks live per-unit states. Workers write, the status server reads.
type Board struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{states: make(map[string]State)}
}

func (b *Board) reset(units []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states = make(map[string]State, len(units))
	for _, unit := range units {
		b.states[unit] = StatePending
	}
}

func (b *Board) set(unit string, state State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[unit] = state
}

// Snapshot returns a copy of the current per-unit states.
func (b *Board) Snapshot() map[string]State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]State, len(b.states))
	for unit, state := range b.states {
		out[unit] = state
	}
	return out
}
