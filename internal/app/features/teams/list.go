package teams

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/system/authz"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
)

// ServeList handles GET /teams: every team the caller leads or belongs to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, err := authz.RequireUser(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	teams, err := h.Teams.ListForUser(ctx, userID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	out := make([]teamSummary, 0, len(teams))
	for _, t := range teams {
		out = append(out, summarize(t))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"teams": out})
}
