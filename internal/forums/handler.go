package forums

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// Handler wires the forum endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers the forum routes. Reading is public, writing needs a
// signed-in user, moderation needs the moderator role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/threads", h.listThreads)
	r.Post("/threads", h.guard.Require(h.createThread))
	r.Get("/threads/{id}", h.getThread)
	r.Delete("/threads/{id}", h.guard.RequireModerator(h.deleteThread))
	r.Put("/threads/{id}/lock", h.guard.RequireModerator(h.lockThread))
	r.Get("/threads/{id}/posts", h.listPosts)
	r.Post("/threads/{id}/posts", h.guard.Require(h.createPost))
	r.Delete("/posts/{id}", h.guard.Require(h.deletePost))
}

func (h *Handler) listThreads(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	threads, pagination, err := h.service.Threads(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list threads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"threads": threads, "pagination": pagination})
}

func (h *Handler) getThread(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	thread, err := h.service.Thread(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, thread)
}

type createThreadPayload struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

func (h *Handler) createThread(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	var payload createThreadPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid thread payload")
		return
	}
	thread, err := h.service.CreateThread(r.Context(), identity.UserID, payload.Title, payload.Body)
	if err != nil {
		h.logger.Error("create thread", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, thread)
}

func (h *Handler) deleteThread(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteThread(r.Context(), identity.UserID, id); err != nil {
		h.logger.Error("delete thread", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type lockPayload struct {
	Locked bool `json:"locked"`
}

func (h *Handler) lockThread(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload lockPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.SetLocked(r.Context(), identity.UserID, id, payload.Locked); err != nil {
		h.logger.Error("lock thread", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"locked": payload.Locked})
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	page, perPage := shared.PageFromRequest(r)
	posts, pagination, err := h.service.Posts(r.Context(), id, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": posts, "pagination": pagination})
}

type createPostPayload struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload createPostPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "a post body is required")
		return
	}
	post, err := h.service.CreatePost(r.Context(), identity.UserID, id, payload.Body)
	if err != nil {
		h.logger.Error("create post", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePost(r.Context(), identity.UserID, id, identity.IsModerator()); err != nil {
		h.logger.Error("delete post", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
