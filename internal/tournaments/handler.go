package tournaments

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// Handler wires the tournament endpoints.
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

// MountRoutes registers the public tournament routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/registrations", h.registrations)
	r.Post("/{id}/register", h.guard.Require(h.register))
	r.Delete("/{id}/register", h.guard.Require(h.unregister))
}

// MountAdminRoutes registers the management endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/", h.guard.RequireAdmin(h.create))
	r.Put("/{id}", h.guard.RequireAdmin(h.update))
	r.Put("/{id}/status", h.guard.RequireAdmin(h.setStatus))
	r.Delete("/{id}", h.guard.RequireAdmin(h.delete))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	status := Status(r.URL.Query().Get("status"))
	tournaments, pagination, err := h.service.List(r.Context(), status, page, perPage)
	if err != nil {
		h.logger.Error("list tournaments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tournaments": tournaments, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) registrations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	regs, err := h.service.Registrations(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.service.Register(r.Context(), id, identity.UserID)
	if err != nil {
		h.logger.Error("register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Unregister(r.Context(), id, identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

type tournamentPayload struct {
	Title       string    `json:"title" validate:"required,min=3,max=120"`
	Game        string    `json:"game" validate:"required,max=64"`
	Description string    `json:"description" validate:"max=2000"`
	Capacity    int       `json:"capacity" validate:"required,min=2,max=1024"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
}

func (h *Handler) decodeTournament(w http.ResponseWriter, r *http.Request) (tournamentPayload, bool) {
	var payload tournamentPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid tournament payload")
		return payload, false
	}
	return payload, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	payload, ok := h.decodeTournament(w, r)
	if !ok {
		return
	}
	t, err := h.service.Create(r.Context(), identity.UserID, Tournament{
		Title:       payload.Title,
		Game:        payload.Game,
		Description: payload.Description,
		Capacity:    payload.Capacity,
		StartsAt:    payload.StartsAt,
	})
	if err != nil {
		h.logger.Error("create tournament", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	payload, ok := h.decodeTournament(w, r)
	if !ok {
		return
	}
	err := h.service.Update(r.Context(), identity.UserID, Tournament{
		ID:          id,
		Title:       payload.Title,
		Game:        payload.Game,
		Description: payload.Description,
		Capacity:    payload.Capacity,
		StartsAt:    payload.StartsAt,
	})
	if err != nil {
		h.logger.Error("update tournament", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload statusPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "a status is required")
		return
	}
	if err := h.service.SetStatus(r.Context(), identity.UserID, id, Status(payload.Status)); err != nil {
		h.logger.Error("set tournament status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": payload.Status})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		h.logger.Error("delete tournament", slog.Any("error", err))
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
