package blog

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

// Handler wires the blog endpoints.
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

// MountRoutes registers the public blog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{slug}", h.getBySlug)
}

// MountAdminRoutes registers the editorial endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.guard.RequireAdmin(h.listAll))
	r.Post("/", h.guard.RequireAdmin(h.create))
	r.Put("/{id}", h.guard.RequireAdmin(h.update))
	r.Post("/{id}/publish", h.guard.RequireAdmin(h.publish))
	r.Delete("/{id}", h.guard.RequireAdmin(h.delete))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	posts, pagination, err := h.service.List(r.Context(), true, page, perPage)
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": posts, "pagination": pagination})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	page, perPage := shared.PageFromRequest(r)
	posts, pagination, err := h.service.List(r.Context(), false, page, perPage)
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": posts, "pagination": pagination})
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

type postPayload struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body" validate:"required"`
}

func (h *Handler) decodePost(w http.ResponseWriter, r *http.Request) (postPayload, bool) {
	var payload postPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid post payload")
		return payload, false
	}
	return payload, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	payload, ok := h.decodePost(w, r)
	if !ok {
		return
	}
	post, err := h.service.Create(r.Context(), identity.UserID, payload.Title, payload.Body)
	if err != nil {
		h.logger.Error("create post", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	payload, ok := h.decodePost(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), identity.UserID, id, payload.Title, payload.Body); err != nil {
		h.logger.Error("update post", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Publish(r.Context(), identity.UserID, id); err != nil {
		h.logger.Error("publish post", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "published"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
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
