// internal/app/features/teams/routes.go
package teams

import "github.com/go-chi/chi/v5"

// Routes mounts the team endpoints. Callers must be signed in; the board,
// sprint and task routes of a team are mounted beside these by bootstrap.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/join", h.HandleJoin)

	r.Delete("/{slug}", h.HandleDelete)
	r.Get("/{slug}/members", h.ServeMembers)
	r.Put("/{slug}/members/{userID}/role", h.HandleSetRole)

	return r
}
