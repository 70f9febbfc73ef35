package uploads

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// Handler wires the upload endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers the upload routes. Every route needs a signed-in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.guard.Require(h.upload))
	r.Get("/", h.guard.Require(h.listMine))
	r.Get("/{id}", h.guard.Require(h.get))
	r.Delete("/{id}", h.guard.Require(h.remove))
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "a multipart \"file\" field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := header.Header.Get("Content-Type")
	upload, err := h.service.Store(r.Context(), identity.UserID, header.Filename, contentType, file, header.Size)
	if err != nil {
		h.logger.Error("store upload", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, upload)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	page, perPage := shared.PageFromRequest(r)
	uploads, pagination, err := h.service.ListByOwner(r.Context(), identity.UserID, page, perPage)
	if err != nil {
		h.logger.Error("list uploads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"uploads": uploads, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	upload, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if upload.OwnerID != identity.UserID && !identity.IsModerator() {
		httpx.Error(w, http.StatusForbidden, "not your upload")
		return
	}
	httpx.JSON(w, http.StatusOK, upload)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), identity.UserID, id, identity.IsModerator()); err != nil {
		h.logger.Error("remove upload", slog.Any("error", err))
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
