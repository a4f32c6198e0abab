package sprints

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/sanitize"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /teams/{slug}/sprints?status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !validStatus(status) {
		h.ErrLog.Respond(w, r, apperr.Invalid("status", "must be one of planned, active, completed"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Read)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	list, err := h.Sprints.ListForTeam(ctx, team.ID, status)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"sprints": list})
}

// HandleCreate handles POST /teams/{slug}/sprints.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
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

	sp := models.Sprint{
		TeamID:    team.ID,
		Name:      sanitize.Name(in.Name),
		Goal:      sanitize.Description(in.Goal),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    in.Status,
		Order:     in.Order,
	}
	if sp.Status == "" {
		sp.Status = models.SprintStatusPlanned
	}
	if err := checkSprint(sp); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	created, err := h.Sprints.Create(ctx, sp)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("sprint created",
		zap.String("team_id", team.ID.Hex()),
		zap.String("sprint_id", created.ID.Hex()))

	httpjson.Write(w, http.StatusCreated, created)
}

// HandleUpdate handles PATCH /teams/{slug}/sprints/{id}. A sprint of another
// team is reported as not found.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Invalid("id", "is not a valid id"))
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
	cur, err := h.Sprints.GetForTeam(ctx, team.ID, id)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	next := cur
	set, unset := bson.M{}, []string{}
	if in.Name != nil {
		next.Name = sanitize.Name(*in.Name)
		set["name"] = next.Name
	}
	if in.Goal != nil {
		next.Goal = sanitize.Description(*in.Goal)
		set["goal"] = next.Goal
	}
	if in.Status != nil {
		next.Status = *in.Status
		set["status"] = next.Status
	}
	if in.Order != nil {
		set["order"] = *in.Order
	}
	if in.StartDate.Set {
		next.StartDate = in.StartDate.Value
		if next.StartDate == nil {
			unset = append(unset, "start_date")
		} else {
			set["start_date"] = next.StartDate.UTC()
		}
	}
	if in.EndDate.Set {
		next.EndDate = in.EndDate.Value
		if next.EndDate == nil {
			unset = append(unset, "end_date")
		} else {
			set["end_date"] = next.EndDate.UTC()
		}
	}
	if err := checkSprint(next); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	updated, err := h.Sprints.Update(ctx, team.ID, id, set, unset)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /teams/{slug}/sprints/{id}. Tasks are untouched.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Invalid("id", "is not a valid id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, userID, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	n, err := h.Sprints.Delete(ctx, team.ID, id)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if n == 0 {
		h.ErrLog.Respond(w, r, apperr.NotFound("sprint"))
		return
	}
	h.Log.Info("sprint deleted",
		zap.String("team_id", team.ID.Hex()),
		zap.String("sprint_id", id.Hex()),
		zap.String("by", userID.Hex()))

	w.WriteHeader(http.StatusNoContent)
}
