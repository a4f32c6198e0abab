package teams

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/system/authz"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleCreate handles POST /teams {teamName}. The caller becomes the leader.
// The team's board is created right away; failing that only logs, since the
// board is also created lazily on first use.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := authz.RequireUser(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in createRequest
	if err := httpjson.Decode(w, r, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, err := h.Teams.Create(ctx, in.TeamName, userID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("team created",
		zap.String("team_id", team.ID.Hex()),
		zap.String("slug", team.Slug),
		zap.String("leader_id", userID.Hex()))

	if _, err := h.Capacity.EnsureBoard(ctx, team.ID); err != nil {
		h.Log.Warn("board creation after team create failed",
			zap.String("team_id", team.ID.Hex()), zap.Error(err))
	}

	httpjson.Write(w, http.StatusCreated, summarize(team))
}
