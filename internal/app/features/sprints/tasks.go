package sprints

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

// teamSprint resolves the caller's access to the team in the URL and loads
// the sprint {id} of that team.
func (h *Handler) teamSprint(ctx context.Context, r *http.Request, access teampolicy.Access) (models.Sprint, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.Sprint{}, apperr.Invalid("id", "is not a valid id")
	}
	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), access)
	if err != nil {
		return models.Sprint{}, err
	}
	return h.Sprints.GetForTeam(ctx, team.ID, id)
}

// ServeTasks handles GET /teams/{slug}/sprints/{id}/tasks?status=.
func (h *Handler) ServeTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sp, err := h.teamSprint(ctx, r, teampolicy.Read)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	tasks, err := h.Members.ListFor(ctx, sp, r.URL.Query().Get("status"))
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// HandleAddTask handles POST /teams/{slug}/sprints/{id}/tasks {taskId}.
func (h *Handler) HandleAddTask(w http.ResponseWriter, r *http.Request) {
	var in addTaskRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if in.TaskID.IsZero() {
		h.ErrLog.Respond(w, r, apperr.Invalid("taskId", "is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sp, err := h.teamSprint(ctx, r, teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	updated, err := h.Members.Add(ctx, sp.ID, in.TaskID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"sprint": updated})
}

// HandleRemoveTask handles DELETE /teams/{slug}/sprints/{id}/tasks/{taskID}.
// Removing a task that is not in the sprint still answers 204.
func (h *Handler) HandleRemoveTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Invalid("taskID", "is not a valid id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sp, err := h.teamSprint(ctx, r, teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if _, err := h.Members.Remove(ctx, sp.ID, taskID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
