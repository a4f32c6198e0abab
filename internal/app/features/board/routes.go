// internal/app/features/board/routes.go
package board

import "github.com/go-chi/chi/v5"

// Routes mounts the board endpoints under /teams/{slug}/board.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeBoard)
	r.Post("/", h.HandleEnsure)
	r.Patch("/", h.HandleSettings)

	r.Get("/occupancy", h.ServeOccupancy)
	r.Post("/tasks/{taskID}", h.HandleAdmit)
	r.Delete("/tasks/{taskID}", h.HandleRemove)

	return r
}
