package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// Handler exposes the admin user-management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   *authz.Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roles *authz.Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, roles: roles, guard: guard}
}

// MountRoutes registers user-management routes. Everything here is admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.guard.RequireAdmin(h.list))
	r.Get("/{id}", h.guard.RequireAdmin(h.get))
	r.Delete("/{id}", h.guard.RequireAdmin(h.delete))
	r.Get("/{id}/roles", h.guard.RequireAdmin(h.listRoles))
	r.Post("/{id}/roles", h.guard.RequireAdmin(h.grantRole))
	r.Delete("/{id}/roles/{role}", h.guard.RequireAdmin(h.revokeRole))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	page, perPage := shared.PageFromRequest(r)
	users, pagination, err := h.service.List(r.Context(), r.URL.Query().Get("search"), page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		h.logger.Error("delete user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	grants, err := h.roles.RolesForUser(r.Context(), id)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": grants})
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) grantRole(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req grantRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	granter := identity.UserID
	grant, err := h.roles.GrantRole(r.Context(), id, authz.Role(req.Role), &granter)
	if err != nil {
		h.logger.Error("grant role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, grant)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	role := authz.Role(chi.URLParam(r, "role"))
	if err := h.roles.RevokeRole(r.Context(), identity.UserID, id, role); err != nil {
		h.logger.Error("revoke role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
