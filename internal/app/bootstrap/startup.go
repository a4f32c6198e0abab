// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"
	"time"

	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/ratelimit"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/avattoli/MyTasks/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Background workers started by Startup and stopped by Shutdown.
var (
	workersMu sync.Mutex
	sweeper   *workers.SprintSweeper
	joins     []*ratelimit.JoinLimiter
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	budgets := timeouts.Current()
	logger.Info("request budgets",
		zap.Duration("short", budgets.Short),
		zap.Duration("medium", budgets.Medium),
		zap.Duration("long", budgets.Long))

	if appCfg.SprintSweepInterval <= 0 {
		logger.Info("sprint sweeper disabled")
		return nil
	}

	workersMu.Lock()
	defer workersMu.Unlock()
	sweeper = workers.NewSprintSweeper(
		sprintstore.New(deps.MongoDatabase),
		taskstore.New(deps.MongoDatabase),
		logger,
		appCfg.SprintSweepInterval,
		timeouts.Long(),
	)
	sweeper.Start()
	return nil
}

// stopWorkers stops whatever Startup started. Safe to call more than once.
func stopWorkers() {
	workersMu.Lock()
	defer workersMu.Unlock()
	if sweeper != nil {
		sweeper.Stop()
		sweeper = nil
	}
	for _, j := range joins {
		j.Stop()
	}
	joins = nil
}

// newJoinLimiter creates the join throttle for a router and registers it for
// stopWorkers.
func newJoinLimiter(perMinute int) *ratelimit.JoinLimiter {
	j := ratelimit.NewJoinLimiter(perMinute, time.Minute)
	if j == nil {
		return nil
	}
	workersMu.Lock()
	defer workersMu.Unlock()
	joins = append(joins, j)
	return j
}
