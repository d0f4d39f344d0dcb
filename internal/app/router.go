package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ballotworks/roleboard/internal/assignments"
	"github.com/ballotworks/roleboard/internal/binding"
	"github.com/ballotworks/roleboard/internal/observability"
	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/roles"
	"github.com/ballotworks/roleboard/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	BindingHandler     *binding.Handler
	AssignmentsHandler *assignments.Handler
	UsersHandler       *users.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with roleboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/roles", func(r chi.Router) {
		params.RolesHandler.MountRoutes(r)
		r.Get("/{roleID}/permissions", params.BindingHandler.ListForRole)
	})
	r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	r.Route("/role-permissions", params.BindingHandler.MountRoutes)
	r.Route("/assignments", params.AssignmentsHandler.MountRoutes)
	r.Route("/users", func(r chi.Router) {
		r.Get("/search", params.UsersHandler.Search)
		r.Get("/{userID}/roles", params.AssignmentsHandler.UserRoles)
		r.Get("/{userID}/permissions", params.BindingHandler.ListForUser)
		r.Get("/{userID}/assignment-history", params.AssignmentsHandler.UserHistory)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
