package tasks

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/placement"
	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreate handles POST /teams/{slug}/tasks. A task created with the
// "board" label is admitted first; a full board answers 409 and nothing is stored.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, userID, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	teamID := team.ID
	task, err := h.Placement.Create(ctx, placement.NewTask{
		Title:       in.Title,
		Status:      in.Status,
		TeamID:      &teamID,
		Type:        in.Type,
		Priority:    in.Priority,
		Order:       in.Order,
		ParentID:    in.ParentID,
		UserID:      userID,
		AssigneeID:  in.AssigneeID,
		Labels:      in.Labels,
		DueDate:     in.DueDate,
		Estimate:    in.Estimate,
		Description: in.Description,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("task created",
		zap.String("team_id", team.ID.Hex()),
		zap.String("task_id", task.ID.Hex()),
		zap.Bool("on_board", task.OnBoard()))

	httpjson.Write(w, http.StatusCreated, task)
}

// HandleUpdate handles PATCH /teams/{slug}/tasks/{taskID}. Keys left out are
// unchanged; null clears parentId, assigneeId, dueDate and estimate.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Invalid("taskID", "is not a valid id"))
		return
	}
	var in updateRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if _, err := h.teamTask(ctx, team.ID, taskID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	task, err := h.Placement.Update(ctx, taskID, in.patch())
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, task)
}

// HandleDelete handles DELETE /teams/{slug}/tasks/{taskID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Invalid("taskID", "is not a valid id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, userID, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if _, err := h.teamTask(ctx, team.ID, taskID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if _, err := h.Placement.Delete(ctx, taskID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("task deleted",
		zap.String("team_id", team.ID.Hex()),
		zap.String("task_id", taskID.Hex()),
		zap.String("by", userID.Hex()))

	w.WriteHeader(http.StatusNoContent)
}
