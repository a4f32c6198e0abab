package teams

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /teams/{slug} (leader only). Sprints, tasks and
// the board go first, the team document last, so a failure part way leaves a
// team the leader can delete again.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, userID, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Lead)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	sprints, err := h.Sprints.DeleteForTeam(ctx, team.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	tasks, err := h.Tasks.DeleteForTeam(ctx, team.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if _, err := h.Boards.DeleteByTeam(ctx, team.ID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	n, err := h.Teams.Delete(ctx, team.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if n == 0 {
		h.ErrLog.Respond(w, r, apperr.NotFound("team"))
		return
	}

	h.Log.Info("team deleted",
		zap.String("team_id", team.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.Int64("sprints", sprints),
		zap.Int64("tasks", tasks))
	w.WriteHeader(http.StatusNoContent)
}
