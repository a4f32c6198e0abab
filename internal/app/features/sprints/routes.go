// internal/app/features/sprints/routes.go
package sprints

import "github.com/go-chi/chi/v5"

// Routes mounts the sprint endpoints under /teams/{slug}/sprints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	// Task membership
	r.Get("/{id}/tasks", h.ServeTasks)
	r.Post("/{id}/tasks", h.HandleAddTask)
	r.Delete("/{id}/tasks/{taskID}", h.HandleRemoveTask)

	return r
}
