package teams

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/system/authz"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/ratelimit"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleJoin handles POST /teams/join {joinCode}.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, err := authz.RequireUser(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if err := h.Joins.Check(r, userID); err != nil {
		h.Log.Warn("join attempts throttled",
			zap.String("user_id", userID.Hex()),
			zap.String("ip", ratelimit.ClientIP(r)))
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in joinRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, err := h.Teams.Join(ctx, in.JoinCode, userID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Joins.Succeeded(userID)
	h.Log.Info("team joined",
		zap.String("team_id", team.ID.Hex()),
		zap.String("user_id", userID.Hex()))

	httpjson.Write(w, http.StatusOK, map[string]any{"team": summarize(team)})
}
