// internal/app/features/teams/handler.go
package teams

import (
	"github.com/avattoli/MyTasks/internal/app/capacity"
	uierrors "github.com/avattoli/MyTasks/internal/app/features/errors"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"github.com/avattoli/MyTasks/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves team creation, joining, membership and deletion.
type Handler struct {
	Teams    *teamstore.Store
	Boards   *boardstore.Store
	Tasks    *taskstore.Store
	Sprints  *sprintstore.Store
	Capacity *capacity.Enforcer
	Joins    *ratelimit.JoinLimiter // nil admits every join attempt
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler creates a new teams Handler.
func NewHandler(teams *teamstore.Store, boards *boardstore.Store, tasks *taskstore.Store, sprints *sprintstore.Store,
	enf *capacity.Enforcer, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:    teams,
		Boards:   boards,
		Tasks:    tasks,
		Sprints:  sprints,
		Capacity: enf,
		ErrLog:   errLog,
		Log:      logger,
	}
}
