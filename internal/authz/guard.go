package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

// RoleSource is the read side of role grants the guards depend on.
type RoleSource interface {
	RolesForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error)
}

// AuthedHandler is a handler invoked only after a guard succeeds. Route
// parameters reach it untouched through the request's chi context.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, identity Identity)

// Guard wraps handlers with authentication and role checks. Every failure is
// a structured JSON error: 401 for no identity, 403 for a resolved identity
// lacking the role, 500 for resolver or lookup faults. Nothing panics past a
// guard.
type Guard struct {
	bearer Resolver
	cookie Resolver
	roles  RoleSource
	logger *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(bearer, cookie Resolver, roles RoleSource, logger *slog.Logger) Guard {
	return Guard{bearer: bearer, cookie: cookie, roles: roles, logger: logger}
}

// Require authenticates via the bearer strategy and optionally demands one of
// the given roles.
func (g Guard) Require(next AuthedHandler, required ...Role) http.HandlerFunc {
	return g.wrap(g.bearer, "authentication required", next, required...)
}

// RequireSession authenticates via the session cookie strategy.
func (g Guard) RequireSession(next AuthedHandler, required ...Role) http.HandlerFunc {
	return g.wrap(g.cookie, "please sign in", next, required...)
}

// RequireAdmin admits admins only.
func (g Guard) RequireAdmin(next AuthedHandler) http.HandlerFunc {
	return g.Require(next, RoleAdmin)
}

// RequireModerator admits moderators and admins.
func (g Guard) RequireModerator(next AuthedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer g.recover(w)
		identity, ok := g.resolve(w, r, g.bearer, "authentication required")
		if !ok {
			return
		}
		if !identity.IsModerator() {
			httpx.Error(w, http.StatusForbidden, "moderator access required")
			return
		}
		next(w, r, identity)
	}
}

func (g Guard) wrap(resolver Resolver, unauthMsg string, next AuthedHandler, required ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer g.recover(w)
		identity, ok := g.resolve(w, r, resolver, unauthMsg)
		if !ok {
			return
		}
		for _, role := range required {
			if identity.HasRole(role) {
				next(w, r, identity)
				return
			}
		}
		if len(required) > 0 {
			httpx.Error(w, http.StatusForbidden, "insufficient role")
			return
		}
		next(w, r, identity)
	}
}

// resolve builds the Identity or writes the failure response. The bool result
// reports whether the handler may proceed.
func (g Guard) resolve(w http.ResponseWriter, r *http.Request, resolver Resolver, unauthMsg string) (Identity, bool) {
	subject, email, err := resolver.Resolve(r.Context(), r)
	if err != nil {
		if errors.Is(err, ErrNoIdentity) {
			httpx.Error(w, http.StatusUnauthorized, unauthMsg)
			return Identity{}, false
		}
		g.logError("resolve identity", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return Identity{}, false
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		// A malformed subject means the session payload is unusable,
		// which to the caller is the same as no identity.
		httpx.Error(w, http.StatusUnauthorized, unauthMsg)
		return Identity{}, false
	}

	grants, err := g.roles.RolesForUser(r.Context(), userID)
	if err != nil {
		g.logError("role lookup", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return Identity{}, false
	}

	return Identity{UserID: userID, Email: email, Roles: grants}, true
}

func (g Guard) recover(w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		if g.logger != nil {
			g.logger.Error("guard recovered panic", slog.Any("panic", rec))
		}
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (g Guard) logError(msg string, err error) {
	if g.logger != nil {
		g.logger.Error(msg, slog.Any("error", err))
	}
}
