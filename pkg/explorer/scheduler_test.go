package explorer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsJobsInOrder(t *testing.T) {
	loop := NewLoop()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 1; i <= 3; i++ {
		loop.Schedule(func(_ context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 3 {
				close(done)
			}
		})
	}

	<-done
	require.NoError(t, loop.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestLoop_CloseDrainsAcceptedWork(t *testing.T) {
	loop := NewLoop()

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		loop.Schedule(func(_ context.Context) {
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}

	require.NoError(t, loop.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, ran, "accepted work always runs to completion")
}

func TestLoop_ScheduleAfterCloseDiscarded(t *testing.T) {
	loop := NewLoop()
	require.NoError(t, loop.Close())

	loop.Schedule(func(_ context.Context) {
		t.Error("job ran after close")
	})
}

func TestManual_RunDrainsNestedJobs(t *testing.T) {
	m := NewManual()

	var got []string
	m.Schedule(func(_ context.Context) {
		got = append(got, "outer")
		m.Schedule(func(_ context.Context) {
			got = append(got, "inner")
		})
	})

	assert.Equal(t, 1, m.Pending())
	ran := m.Run(context.Background())

	assert.Equal(t, 2, ran)
	assert.Equal(t, []string{"outer", "inner"}, got)
	assert.Zero(t, m.Pending())
}
