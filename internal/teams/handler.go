package teams

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

// Handler wires the team endpoints.
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

// MountRoutes registers the public and member-facing team routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/requests", h.guard.Require(h.submitRequest))
	r.Get("/{id}", h.get)
	r.Get("/{id}/members", h.members)
	r.Put("/{id}/owner", h.guard.Require(h.transferOwnership))
	r.Delete("/{id}/members/{userID}", h.guard.Require(h.removeMember))
}

// MountAdminRoutes registers the request decision endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/requests", h.guard.RequireAdmin(h.listRequests))
	r.Post("/requests/{id}/approve", h.guard.RequireAdmin(h.approveRequest))
	r.Post("/requests/{id}/reject", h.guard.RequireAdmin(h.rejectRequest))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	teams, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list teams", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teams": teams, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	team, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	members, err := h.service.Members(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

type submitRequestPayload struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Tag         string `json:"tag" validate:"required,min=2,max=8"`
	Description string `json:"description" validate:"max=500"`
}

func (h *Handler) submitRequest(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	var payload submitRequestPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid team request payload")
		return
	}
	req, err := h.service.SubmitRequest(r.Context(), identity.UserID, payload.Name, payload.Tag, payload.Description)
	if err != nil {
		h.logger.Error("submit team request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

type transferOwnerPayload struct {
	NewOwnerID string `json:"new_owner_id" validate:"required,uuid"`
}

func (h *Handler) transferOwnership(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	teamID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload transferOwnerPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid transfer payload")
		return
	}
	newOwnerID, err := uuid.Parse(payload.NewOwnerID)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid transfer payload")
		return
	}
	if err := h.service.TransferOwnership(r.Context(), identity.UserID, teamID, newOwnerID, identity.IsAdmin()); err != nil {
		h.logger.Error("transfer ownership", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	teamID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	if !identity.IsModerator() {
		team, err := h.service.Get(r.Context(), teamID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if team.OwnerID != identity.UserID {
			httpx.Error(w, http.StatusForbidden, "only the team owner can manage the roster")
			return
		}
	}
	if err := h.service.RemoveMember(r.Context(), identity.UserID, teamID, userID); err != nil {
		h.logger.Error("remove member", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	page, perPage := shared.PageFromRequest(r)
	status := RequestStatus(r.URL.Query().Get("status"))
	requests, pagination, err := h.service.Requests(r.Context(), status, page, perPage)
	if err != nil {
		h.logger.Error("list team requests", slog.Any("error", err))
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
	team, err := h.service.Approve(r.Context(), identity.UserID, id)
	if err != nil {
		h.logger.Error("approve team request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
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
		h.logger.Error("reject team request", slog.Any("error", err))
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
