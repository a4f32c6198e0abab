package board

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleAdmit handles POST /teams/{slug}/board/tasks/{taskID}: put an existing
// team task on the board. A full board answers 409 with the current count.
func (h *Handler) HandleAdmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, err := h.writableTask(ctx, r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	admitted, err := h.Capacity.Admit(ctx, task.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"task": admitted})
}

// HandleRemove handles DELETE /teams/{slug}/board/tasks/{taskID}: take a task
// off the board. Removal frees a slot and is never gated.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, err := h.writableTask(ctx, r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	removed, err := h.Tasks.RemoveLabel(ctx, task.ID, models.BoardLabel)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"task": removed})
}

// writableTask resolves {taskID} to a task of the {slug} team the caller may
// write. Tasks of other teams are reported as not found.
func (h *Handler) writableTask(ctx context.Context, r *http.Request) (models.Task, error) {
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		return models.Task{}, apperr.Invalid("taskID", "is not a valid id")
	}
	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Write)
	if err != nil {
		return models.Task{}, err
	}
	task, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.TeamID == nil || *task.TeamID != team.ID {
		return models.Task{}, apperr.NotFound("task")
	}
	return task, nil
}
