// Package authz implements identity resolution, role grants and the route
// guards protecting every authenticated endpoint.
package authz

import (
	"time"

	"github.com/google/uuid"
)

// Role is one of the closed set of platform roles. Persisted as text,
// validated at the boundary.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleVip       Role = "vip"
	RoleUser      Role = "user"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleVip, RoleUser:
		return true
	}
	return false
}

// Grant asserts that a user holds a role. GrantedBy is nil for
// system-assigned defaults; it is informational only, deleting the granter
// does not revoke the grant.
type Grant struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      Role       `json:"role"`
	GrantedBy *uuid.UUID `json:"granted_by,omitempty"`
	GrantedAt time.Time  `json:"granted_at"`
}

// Identity is the resolved caller of one request. Built fresh per request,
// roles fetched live from the store, never cached and never trusted from the
// session token itself.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Roles  []Grant
}

// HasRole reports whether any grant carries the queried role. False, not an
// error, for the zero Identity.
func (id Identity) HasRole(role Role) bool {
	for _, g := range id.Roles {
		if g.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}

// IsModerator reports whether the identity holds admin or moderator. Vip and
// user carry no elevated capability.
func (id Identity) IsModerator() bool {
	return id.IsAdmin() || id.HasRole(RoleModerator)
}
