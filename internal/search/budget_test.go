package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberleif/syntheseus/internal/types"
)

func TestNewBudget_Validation(t *testing.T) {
	tests := []struct {
		name      string
		maxCalls  int
		timeLimit time.Duration
		wantErr   bool
	}{
		{
			name:      "valid budget",
			maxCalls:  10,
			timeLimit: time.Minute,
		},
		{
			name:      "zero time limit disables wall clock",
			maxCalls:  1,
			timeLimit: 0,
		},
		{
			name:     "zero calls rejected",
			maxCalls: 0,
			wantErr:  true,
		},
		{
			name:     "negative calls rejected",
			maxCalls: -5,
			wantErr:  true,
		},
		{
			name:      "negative time limit rejected",
			maxCalls:  1,
			timeLimit: -time.Second,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBudget(tt.maxCalls, tt.timeLimit)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.SEARCH_BUDGET_INVALID, types.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, b)
		})
	}
}

func TestBudget_TryConsumeCall(t *testing.T) {
	b, err := NewBudget(3, 0)
	require.NoError(t, err)

	assert.True(t, b.TryConsumeCall())
	assert.True(t, b.TryConsumeCall())
	assert.True(t, b.TryConsumeCall())
	assert.False(t, b.TryConsumeCall(), "fourth call exceeds the budget")
	assert.Equal(t, 3, b.CallsMade(), "refused call must not be counted")
	assert.True(t, b.CallsExhausted())
}

func TestBudget_ConcurrentConsumption(t *testing.T) {
	const budget = 50
	b, err := NewBudget(budget, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var grantedCount int64

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.TryConsumeCall() {
				mu.Lock()
				grantedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, budget, grantedCount, "exactly the budgeted number of calls is granted")
	assert.Equal(t, budget, b.CallsMade())
}

func TestBudget_TimeExceeded(t *testing.T) {
	b, err := NewBudget(10, time.Nanosecond)
	require.NoError(t, err)

	assert.False(t, b.TimeExceeded(), "clock does not run before Start")
	b.Start()
	time.Sleep(time.Millisecond)
	assert.True(t, b.TimeExceeded())
	assert.Greater(t, b.Elapsed(), time.Duration(0))
}
