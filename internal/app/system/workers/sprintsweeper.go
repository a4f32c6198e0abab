// internal/app/system/workers/sprintsweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SprintSweeper is a background worker that removes ids of deleted tasks from
// sprints. Task deletion already pulls ids eagerly; the sweeper catches what a
// failed or interrupted pull left behind.
type SprintSweeper struct {
	sprints  *sprintstore.Store
	tasks    *taskstore.Store
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSprintSweeper creates a sweeper that runs every interval, each pass
// bounded by timeout.
func NewSprintSweeper(sprints *sprintstore.Store, tasks *taskstore.Store, logger *zap.Logger, interval, timeout time.Duration) *SprintSweeper {
	return &SprintSweeper{
		sprints:  sprints,
		tasks:    tasks,
		log:      logger,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *SprintSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("sprint sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *SprintSweeper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("sprint sweeper stopped")
}

func (w *SprintSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := timeouts.WithTimeout(context.Background(), w.timeout, w.log, "sprint sweep")
			if _, err := w.Sweep(ctx); err != nil {
				w.log.Error("sprint sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// SweepResult summarizes one pass.
type SweepResult struct {
	SprintsScanned  int   `json:"sprintsScanned" yaml:"sprints_scanned"`
	SprintsModified int64 `json:"sprintsModified" yaml:"sprints_modified"`
	IDsRemoved      int   `json:"idsRemoved" yaml:"ids_removed"`
}

// Sweep makes one pass over every sprint holding task ids.
func (w *SprintSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	err := w.sprints.EachWithTasks(ctx, func(sp models.Sprint) error {
		res.SprintsScanned++
		existing, err := w.tasks.ExistingIDs(ctx, sp.TaskIDs)
		if err != nil {
			return err
		}
		var gone []primitive.ObjectID
		for _, id := range sp.TaskIDs {
			if !existing[id] {
				gone = append(gone, id)
			}
		}
		if len(gone) == 0 {
			return nil
		}
		n, err := w.sprints.PullTasks(ctx, sp.ID, gone)
		if err != nil {
			return err
		}
		res.SprintsModified += n
		res.IDsRemoved += len(gone)
		return nil
	})
	if err != nil {
		return res, err
	}
	if res.IDsRemoved > 0 {
		w.log.Info("removed dangling sprint task ids",
			zap.Int("sprints_scanned", res.SprintsScanned),
			zap.Int64("sprints_modified", res.SprintsModified),
			zap.Int("ids_removed", res.IDsRemoved))
	}
	return res, nil
}
