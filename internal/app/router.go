package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/arenahub/arenahub/internal/auth"
	"github.com/arenahub/arenahub/internal/blog"
	"github.com/arenahub/arenahub/internal/events"
	"github.com/arenahub/arenahub/internal/forums"
	"github.com/arenahub/arenahub/internal/observability"
	"github.com/arenahub/arenahub/internal/payments"
	"github.com/arenahub/arenahub/internal/shared"
	"github.com/arenahub/arenahub/internal/teams"
	"github.com/arenahub/arenahub/internal/tournaments"
	"github.com/arenahub/arenahub/internal/uploads"
	"github.com/arenahub/arenahub/internal/users"
	"github.com/arenahub/arenahub/internal/view"
	"github.com/arenahub/arenahub/jobs"
	"github.com/arenahub/arenahub/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	TeamsHandler       *teams.Handler
	EventsHandler      *events.Handler
	TournamentsHandler *tournaments.Handler
	ForumsHandler      *forums.Handler
	BlogHandler        *blog.Handler
	UploadsHandler     *uploads.Handler
	PaymentsHandler    *payments.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with ArenaHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		params.renderPage(w, r, "pages/landing.html", "ArenaHub")
	})
	r.Get("/home", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		params.renderPage(w, r, "pages/home.html", "Home")
	})
	params.AuthHandler.MountWebRoutes(r)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountAPIRoutes)
		r.Route("/teams", params.TeamsHandler.MountRoutes)
		r.Route("/events", params.EventsHandler.MountRoutes)
		r.Route("/tournaments", params.TournamentsHandler.MountRoutes)
		r.Route("/forums", params.ForumsHandler.MountRoutes)
		r.Route("/blog", params.BlogHandler.MountRoutes)
		r.Route("/uploads", params.UploadsHandler.MountRoutes)
		r.Route("/payments", params.PaymentsHandler.MountRoutes)

		r.Route("/admin", func(r chi.Router) {
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/teams", params.TeamsHandler.MountAdminRoutes)
			r.Route("/events", params.EventsHandler.MountAdminRoutes)
			r.Route("/tournaments", params.TournamentsHandler.MountAdminRoutes)
			r.Route("/blog", params.BlogHandler.MountAdminRoutes)
			r.Route("/payments", params.PaymentsHandler.MountAdminRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func (p RouterParams) renderPage(w http.ResponseWriter, r *http.Request, template, title string) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := p.CSRFManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		SignedIn:    sess != nil && sess.User() != "",
	}
	if err := p.Templates.Render(w, template, data); err != nil {
		p.Logger.Error("render page", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers. Assets
// are fingerprint-free, so keep the browser cache short.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
