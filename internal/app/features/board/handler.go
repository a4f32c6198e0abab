// internal/app/features/board/handler.go
package board

import (
	"github.com/avattoli/MyTasks/internal/app/capacity"
	uierrors "github.com/avattoli/MyTasks/internal/app/features/errors"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"go.uber.org/zap"
)

// Handler serves a team's Kanban board: settings, occupancy and admission.
type Handler struct {
	Teams    *teamstore.Store
	Boards   *boardstore.Store
	Tasks    *taskstore.Store
	Capacity *capacity.Enforcer
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler creates a new board Handler.
func NewHandler(teams *teamstore.Store, boards *boardstore.Store, tasks *taskstore.Store, enf *capacity.Enforcer, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:    teams,
		Boards:   boards,
		Tasks:    tasks,
		Capacity: enf,
		ErrLog:   errLog,
		Log:      logger,
	}
}
