package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wellesley-hci/lexi-api/internal/api/middleware"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Workspaces *WorkspaceHandler
	Users      *UserHandler
	Tasks      *TaskHandler
	Admin      *AdminHandler
}

// NewRouter builds the HTTP routing tree.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Trace)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", h.Workspaces.Create)
			r.Get("/", h.Workspaces.List)
			r.Get("/{workspaceID}", h.Workspaces.Get)

			r.Get("/{workspaceID}/users/{userID}/tasks", h.Tasks.ListForUser)
			r.Post("/{workspaceID}/tasks/{taskID}/respond", h.Tasks.Respond)
			r.Post("/{workspaceID}/tasks/{taskID}/complete", h.Tasks.Complete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Users.Create)
			r.Get("/{userID}", h.Users.Get)
			r.Post("/{userID}/workspaces/{workspaceID}", h.Users.JoinWorkspace)
		})

		r.Route("/admin/jobs", func(r chi.Router) {
			r.Post("/pool", h.Admin.RunPool)
			r.Post("/assign", h.Admin.RunAssign)
			r.Post("/sweep", h.Admin.RunSweep)
		})
	})

	return r
}
