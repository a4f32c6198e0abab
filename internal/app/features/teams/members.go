package teams

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeMembers handles GET /teams/{slug}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Read)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"team": detail(team)})
}

// HandleSetRole handles PUT /teams/{slug}/members/{userID}/role {role}.
// Only the leader may promote members to ADMIN or demote them.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Invalid("userID", "is not a valid id"))
		return
	}
	var in roleRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, callerID, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Lead)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	updated, err := h.Teams.SetMemberRole(ctx, team.ID, memberID, in.Role)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("member role changed",
		zap.String("team_id", team.ID.Hex()),
		zap.String("member_id", memberID.Hex()),
		zap.String("role", in.Role),
		zap.String("by", callerID.Hex()))

	httpjson.Write(w, http.StatusOK, map[string]any{"team": detail(updated)})
}
