// Package sprintset manages which tasks belong to a sprint.
//
// Membership is a set on the sprint document, mutated only with $addToSet and
// $pull, so concurrent adds and removes converge in any order. Sprints have
// no capacity limit and membership does not touch board placement.
package sprintset

import (
	"context"

	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Manager struct {
	sprints *sprintstore.Store
	tasks   *taskstore.Store
	log     *zap.Logger
}

func New(sprints *sprintstore.Store, tasks *taskstore.Store, logger *zap.Logger) *Manager {
	return &Manager{sprints: sprints, tasks: tasks, log: logger}
}

// Add puts taskID in the sprint. The task must belong to the sprint's team.
// Adding a task that is already present succeeds without change.
func (m *Manager) Add(ctx context.Context, sprintID, taskID primitive.ObjectID) (models.Sprint, error) {
	sp, err := m.sprints.GetByID(ctx, sprintID)
	if err != nil {
		return models.Sprint{}, err
	}
	task, err := m.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Sprint{}, err
	}
	if task.TeamID == nil || *task.TeamID != sp.TeamID {
		m.log.Info("cross-team sprint add rejected",
			zap.String("sprint_id", sprintID.Hex()),
			zap.String("task_id", taskID.Hex()))
		return models.Sprint{}, apperr.ErrCrossTeam
	}
	return m.sprints.AddTask(ctx, sprintID, taskID)
}

// Remove takes taskID out of the sprint. Removing an absent id succeeds;
// only a missing sprint is an error.
func (m *Manager) Remove(ctx context.Context, sprintID, taskID primitive.ObjectID) (models.Sprint, error) {
	return m.sprints.RemoveTask(ctx, sprintID, taskID)
}

// List returns the sprint's tasks ordered by (status, order, created_at),
// optionally filtered by status. Ids whose task no longer exists are skipped.
func (m *Manager) List(ctx context.Context, sprintID primitive.ObjectID, status string) ([]models.Task, error) {
	sp, err := m.sprints.GetByID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return m.ListFor(ctx, sp, status)
}

// ListFor is List for an already loaded sprint.
func (m *Manager) ListFor(ctx context.Context, sp models.Sprint, status string) ([]models.Task, error) {
	if status != "" && !validStatus(status) {
		return nil, apperr.Invalid("status", "must be one of todo, in_progress, done")
	}
	return m.tasks.ListByIDs(ctx, sp.TeamID, sp.TaskIDs, status)
}

func validStatus(s string) bool {
	for _, v := range models.TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}
