package board

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/policy/teampolicy"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeBoard handles GET /teams/{slug}/board. A team whose board was never
// created gets 404.
func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Read)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	b, err := h.Boards.Get(ctx, team.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"board": b})
}

// HandleEnsure handles POST /teams/{slug}/board: 201 when this call created
// the board, 200 when it already existed.
func (h *Handler) HandleEnsure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Write)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	b, created, err := h.Capacity.Ensure(ctx, team.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, map[string]any{"board": b})
}

// HandleSettings handles PATCH /teams/{slug}/board {maxTasks?, columns?}.
// Column patches are matched by key; unknown keys are ignored.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	var in boardstore.Settings
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
	b, err := h.Capacity.UpdateSettings(ctx, team.ID, in)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("board settings updated",
		zap.String("team_id", team.ID.Hex()),
		zap.Int("max_tasks", b.MaxTasks),
		zap.String("by", userID.Hex()))

	httpjson.Write(w, http.StatusOK, map[string]any{"board": b})
}

// ServeOccupancy handles GET /teams/{slug}/board/occupancy.
func (h *Handler) ServeOccupancy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, _, err := teampolicy.ForRequest(ctx, r, h.Teams, chi.URLParam(r, "slug"), teampolicy.Read)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	occ, err := h.Capacity.Occupancy(ctx, team.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"occupancy": occ})
}
