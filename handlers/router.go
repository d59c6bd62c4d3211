package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/logging"
	"github.com/kevinaaaquil/library/metrics"
	"github.com/kevinaaaquil/library/middleware"
	"github.com/kevinaaaquil/library/models"
)

// Router wires the handlers to their routes. Metrics, Books.Lookup and Reports
// may be nil.
type Router struct {
	Auth        *AuthHandler
	Books       *BooksHandler
	Dashboard   *DashboardHandler
	Users       *UsersHandler
	Reports     *ReportsHandler
	Metrics     *metrics.Metrics
	JWTSecret   string
	CORSOrigins []string
	Logger      *zap.Logger
}

func (rt *Router) Handler() http.Handler {
	logger := rt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	staff := middleware.RequireRole(models.RoleLibrarian, models.RoleAdmin)

	r := chi.NewRouter()
	r.Use(middleware.CORS(rt.CORSOrigins))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(rt.Metrics.Middleware)
	r.Use(chimw.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "welcome to the library."})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if rt.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", rt.Auth.Login)
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(rt.JWTSecret))
			r.Get("/auth/me", rt.Auth.Me)
			r.Get("/dashboard", rt.Dashboard.Get)
			r.Get("/books", rt.Books.List)
			r.Get("/books/{id}", rt.Books.Get)
			r.Post("/books/{id}/actions", rt.Books.Action)
			r.With(staff).Post("/books/{id}/metadata", rt.Books.Metadata)
			r.With(staff).Post("/reports", rt.Reports.Create)

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/", rt.Users.ListUsers)
				r.Post("/", rt.Users.CreateUser)
				r.Patch("/{id}", rt.Users.UpdateUser)
				r.Delete("/{id}", rt.Users.DeleteUser)
			})
		})
	})
	return r
}
