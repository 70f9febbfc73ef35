package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
	"github.com/arenahub/arenahub/internal/view"
	"github.com/arenahub/arenahub/jobs"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	guard          authz.Guard
	jobsClient     *jobs.Client
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance. jobsClient may be nil; the welcome
// email is then skipped.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, guard authz.Guard, jobsClient *jobs.Client) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		guard:          guard,
		jobsClient:     jobsClient,
		validator:      validator.New(),
	}
}

// MountWebRoutes registers the server-rendered auth pages.
func (h *Handler) MountWebRoutes(r chi.Router) {
	r.Get("/login", h.showPage("pages/login.html", "Sign in"))
	r.Get("/register", h.showPage("pages/register.html", "Create account"))
}

// MountAPIRoutes registers the JSON auth endpoints.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Post("/profile", h.guard.Require(h.profile))
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid registration payload")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.logger.Error("register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.jobsClient != nil {
		payload := jobs.SendEmailPayload{
			To:      user.Email,
			Subject: "Welcome to ArenaHub",
			Body:    "Your account is ready. Join a team, sign up for a tournament and see you on the server.",
		}
		if _, err := h.jobsClient.EnqueueSendEmail(r.Context(), payload); err != nil {
			h.logger.Warn("enqueue welcome email", slog.Any("error", err))
		}
	}

	token := h.establishSession(w, r, user)
	httpx.JSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	token := h.establishSession(w, r, user)
	httpx.JSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	user, err := h.service.EnsureProfile(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("ensure profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"roles": identity.Roles,
	})
}

// establishSession binds the current session to the user and records it for
// auditing. The returned token doubles as the API bearer credential.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, user *User) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		return ""
	}
	sess.SetUser(user.ID.String(), user.Email)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	return sess.ID
}

func (h *Handler) showPage(template, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       title,
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
		}
		if err := h.templates.Render(w, template, data); err != nil {
			h.logger.Error("render page", slog.String("template", template), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
