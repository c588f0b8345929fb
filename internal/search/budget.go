package search

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fiberleif/syntheseus/internal/types"
)

// Budget tracks the run's computation allowance: a maximum number of
// expansion-policy calls and an optional wall-clock limit. Call accounting is
// atomic so parallel expansion workers can consume concurrently.
type Budget struct {
	maxCalls  int64
	timeLimit time.Duration
	calls     atomic.Int64
	started   time.Time
}

// NewBudget creates a Budget. maxCalls must be positive; timeLimit of zero
// disables the wall-clock limit.
func NewBudget(maxCalls int, timeLimit time.Duration) (*Budget, error) {
	if maxCalls <= 0 {
		return nil, types.NewError(types.SEARCH_BUDGET_INVALID,
			fmt.Sprintf("max expansion calls must be positive, got %d", maxCalls))
	}
	if timeLimit < 0 {
		return nil, types.NewError(types.SEARCH_BUDGET_INVALID,
			fmt.Sprintf("time limit must not be negative, got %s", timeLimit))
	}
	return &Budget{maxCalls: int64(maxCalls), timeLimit: timeLimit}, nil
}

// Start marks the beginning of the run for wall-clock accounting.
func (b *Budget) Start() {
	b.started = time.Now()
}

// TryConsumeCall atomically consumes one expansion call from the budget.
// Returns false without consuming when the call budget is already spent.
func (b *Budget) TryConsumeCall() bool {
	for {
		current := b.calls.Load()
		if current >= b.maxCalls {
			return false
		}
		if b.calls.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// CallsMade returns the number of expansion calls consumed so far.
func (b *Budget) CallsMade() int {
	return int(b.calls.Load())
}

// CallsExhausted reports whether the call budget is fully consumed.
func (b *Budget) CallsExhausted() bool {
	return b.calls.Load() >= b.maxCalls
}

// TimeExceeded reports whether the wall-clock limit has elapsed.
func (b *Budget) TimeExceeded() bool {
	if b.timeLimit == 0 || b.started.IsZero() {
		return false
	}
	return time.Since(b.started) >= b.timeLimit
}

// Elapsed returns the wall-clock time since Start.
func (b *Budget) Elapsed() time.Duration {
	if b.started.IsZero() {
		return 0
	}
	return time.Since(b.started)
}
