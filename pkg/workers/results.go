package workers

import (
	"context"
	"time"

	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/queue"
	"github.com/sandlotlabs/dugout/pkg/repositories"
)

// SaveResultWorker drains terminal game records enqueued by room hubs
// and persists them for downstream consumers. The hub's obligation ends
// at the enqueue; everything after that is this worker's problem.
type SaveResultWorker struct {
	repository   repositories.Repository
	resultsQueue queue.Queue
	interval     time.Duration
}

type NewSaveResultWorkerOptions struct {
	Repository   repositories.Repository
	ResultsQueue queue.Queue
	Interval     time.Duration
}

func NewSaveResultWorker(opts NewSaveResultWorkerOptions) *SaveResultWorker {
	return &SaveResultWorker{
		repository:   opts.Repository,
		resultsQueue: opts.ResultsQueue,
		interval:     opts.Interval,
	}
}

func (w *SaveResultWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain(context.Background())
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *SaveResultWorker) drain(ctx context.Context) {
	pending, err := w.resultsQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read pending game results: %v", err)
		return
	}

	for _, item := range pending {
		result, ok := item.(*repositories.GameResult)
		if !ok {
			log.Error("Failed to cast item to repositories.GameResult")
			continue
		}
		if err := w.repository.SaveResult(ctx, result); err != nil {
			log.Error("Failed to save game result for room %s: %v", result.RoomID, err)
		}
	}
}
