package workers

import (
	"context"
	"testing"
	"time"

	"github.com/sandlotlabs/dugout/pkg/queue"
	"github.com/sandlotlabs/dugout/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveResultWorker_drain(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewInMemoryRepository()
	resultsQueue := queue.NewInMemoryQueue(10)
	worker := NewSaveResultWorker(NewSaveResultWorkerOptions{
		Repository:   repo,
		ResultsQueue: resultsQueue,
		Interval:     time.Second,
	})

	require.NoError(t, resultsQueue.Enqueue(&repositories.GameResult{RoomID: "room-1", HomeScore: 4, AwayScore: 2}))
	require.NoError(t, resultsQueue.Enqueue(&repositories.GameResult{RoomID: "room-2", HomeScore: 1, AwayScore: 7}))
	// Items of the wrong type are skipped, not fatal.
	require.NoError(t, resultsQueue.Enqueue("not a result"))

	worker.drain(ctx)

	results, err := repo.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "room-1", results[0].RoomID)
	assert.Equal(t, "room-2", results[1].RoomID)
	assert.Equal(t, 0, resultsQueue.Size())
}

// Cancelling the worker context drains whatever is still queued before
// Start returns, so completed games are not lost on shutdown.
func TestSaveResultWorker_drainsOnShutdown(t *testing.T) {
	repo := repositories.NewInMemoryRepository()
	resultsQueue := queue.NewInMemoryQueue(10)
	worker := NewSaveResultWorker(NewSaveResultWorkerOptions{
		Repository:   repo,
		ResultsQueue: resultsQueue,
		Interval:     time.Hour,
	})

	require.NoError(t, resultsQueue.Enqueue(&repositories.GameResult{RoomID: "room-1"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	results, err := repo.ListResults(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "room-1", results[0].RoomID)
}
