// internal/app/features/tasks/handler.go
package tasks

import (
	"context"

	uierrors "github.com/avattoli/MyTasks/internal/app/features/errors"
	"github.com/avattoli/MyTasks/internal/app/placement"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves a team's tasks. Writes go through the placement
// coordinator so board capacity is respected.
type Handler struct {
	Teams     *teamstore.Store
	Tasks     *taskstore.Store
	Placement *placement.Coordinator
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

// NewHandler creates a new tasks Handler.
func NewHandler(teams *teamstore.Store, tasks *taskstore.Store, coord *placement.Coordinator, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:     teams,
		Tasks:     tasks,
		Placement: coord,
		ErrLog:    errLog,
		Log:       logger,
	}
}

// teamTask loads the task and hides tasks of other teams behind NotFound.
func (h *Handler) teamTask(ctx context.Context, teamID, taskID primitive.ObjectID) (models.Task, error) {
	t, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if t.TeamID == nil || *t.TeamID != teamID {
		return models.Task{}, apperr.NotFound("task")
	}
	return t, nil
}
