package tasks

import (
	"context"
	"net/http"
	"strconv"

	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /teams/{slug}/tasks?status=&board=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := taskstore.ListFilter{Status: q.Get("status")}
	if v := q.Get("board"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			h.ErrLog.Respond(w, r, apperr.Invalid("board", "must be true or false"))
			return
		}
		f.OnBoard = on
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Read)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	tasks, err := h.Tasks.ListForTeam(ctx, team.ID, f)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"tasks": tasks})
}
