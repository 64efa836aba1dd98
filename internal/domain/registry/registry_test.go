package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsudoku/master/internal/domain/board"
	"github.com/distsudoku/master/internal/domain/partition"
)

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry()
	b, err := board.New(9)
	require.NoError(t, err)

	job := NewJob("job-1", partition.ColumnStrategy, b, time.Now())
	r.Add(job)

	got, ok := r.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, job, got)
	assert.Equal(t, 1, r.Count())

	r.Remove("job-1")
	_, ok = r.Get("job-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestNewJob_StartsInCreatedState(t *testing.T) {
	b, err := board.New(9)
	require.NoError(t, err)
	job := NewJob("job-1", partition.BlockStrategy, b, time.Now())

	assert.Equal(t, StateCreated, job.State)
	assert.Equal(t, 1, job.Iteration)
	assert.True(t, job.CurrentBlueprint.Equal(job.InitialBlueprint))
	assert.False(t, job.InitialBlueprint == job.CurrentBlueprint, "blueprints must not alias")
}

func TestRegistry_ConcurrentAddIsSafe(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := board.New(4)
			r.Add(NewJob(NewJobID(), partition.ColumnStrategy, b, time.Now()))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, r.Count())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateActive.Terminal())
	assert.True(t, StateSolved.Terminal())
	assert.True(t, StateUnsolvable.Terminal())
	assert.True(t, StateAbandoned.Terminal())
}
