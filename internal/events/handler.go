package events

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

// Handler wires the event endpoints.
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

// MountRoutes registers the public event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/requests", h.guard.Require(h.submitRequest))
	r.Get("/{id}", h.get)
}

// MountAdminRoutes registers edit and decision endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Put("/{id}", h.guard.RequireAdmin(h.update))
	r.Delete("/{id}", h.guard.RequireAdmin(h.delete))
	r.Get("/requests", h.guard.RequireAdmin(h.listRequests))
	r.Post("/requests/{id}/approve", h.guard.RequireAdmin(h.approveRequest))
	r.Post("/requests/{id}/reject", h.guard.RequireAdmin(h.rejectRequest))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	upcoming := r.URL.Query().Get("upcoming") == "true"
	events, pagination, err := h.service.List(r.Context(), upcoming, page, perPage)
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, event)
}

type eventPayload struct {
	Title       string    `json:"title" validate:"required,min=3,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	Game        string    `json:"game" validate:"required,max=64"`
	Location    string    `json:"location" validate:"max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

func (h *Handler) decodeEvent(w http.ResponseWriter, r *http.Request) (eventPayload, bool) {
	var payload eventPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid event payload")
		return payload, false
	}
	return payload, true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	payload, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	err := h.service.Update(r.Context(), identity.UserID, Event{
		ID:          id,
		Title:       payload.Title,
		Description: payload.Description,
		Game:        payload.Game,
		Location:    payload.Location,
		StartsAt:    payload.StartsAt,
		EndsAt:      payload.EndsAt,
	})
	if err != nil {
		h.logger.Error("update event", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		h.logger.Error("delete event", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) submitRequest(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	payload, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	req, err := h.service.SubmitRequest(r.Context(), identity.UserID, Request{
		Title:       payload.Title,
		Description: payload.Description,
		Game:        payload.Game,
		Location:    payload.Location,
		StartsAt:    payload.StartsAt,
		EndsAt:      payload.EndsAt,
	})
	if err != nil {
		h.logger.Error("submit event request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	page, perPage := shared.PageFromRequest(r)
	status := RequestStatus(r.URL.Query().Get("status"))
	requests, pagination, err := h.service.Requests(r.Context(), status, page, perPage)
	if err != nil {
		h.logger.Error("list event requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": requests, "pagination": pagination})
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.service.Approve(r.Context(), identity.UserID, id)
	if err != nil {
		h.logger.Error("approve event request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, event)
}

type rejectPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload rejectPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "a rejection reason is required")
		return
	}
	if err := h.service.Reject(r.Context(), identity.UserID, id, payload.Reason); err != nil {
		h.logger.Error("reject event request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
