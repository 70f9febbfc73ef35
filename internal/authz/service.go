package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

// Service owns role-grant business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RolesForUser returns the current grants for a user. An empty role set is a
// successful result; only a store failure is an error.
func (s *Service) RolesForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error) {
	grants, err := s.repo.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authz: role lookup: %w", err)
	}
	return grants, nil
}

// GrantRole assigns a role to a user. Duplicate grants are rejected here; the
// unique constraint on (user_id, role) backs the check under races.
func (s *Service) GrantRole(ctx context.Context, userID uuid.UUID, role Role, grantedBy *uuid.UUID) (Grant, error) {
	if !role.Valid() {
		return Grant{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	existing, err := s.repo.FindGrant(ctx, userID, role)
	if err != nil {
		return Grant{}, fmt.Errorf("authz: find grant: %w", err)
	}
	if existing != nil {
		return Grant{}, fmt.Errorf("%w: user already holds role %q", httpx.ErrPolicy, role)
	}
	grant := Grant{ID: uuid.New(), UserID: userID, Role: role, GrantedBy: grantedBy}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return Grant{}, fmt.Errorf("authz: create grant: %w", err)
	}
	return grant, nil
}

// RevokeRole removes a role from a user. An actor may not revoke their own
// admin role: that would lock the last door behind them.
func (s *Service) RevokeRole(ctx context.Context, actorID, userID uuid.UUID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	if role == RoleAdmin && actorID == userID {
		return fmt.Errorf("%w: cannot remove your own admin role", httpx.ErrPolicy)
	}
	affected, err := s.repo.DeleteGrant(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("authz: delete grant: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: role grant", httpx.ErrNotFound)
	}
	return nil
}

// EnsureDefaultRole grants the default "user" role if the user does not hold
// it yet. Safe to call repeatedly: registering twice yields one grant.
func (s *Service) EnsureDefaultRole(ctx context.Context, userID uuid.UUID) error {
	existing, err := s.repo.FindGrant(ctx, userID, RoleUser)
	if err != nil {
		return fmt.Errorf("authz: find grant: %w", err)
	}
	if existing != nil {
		return nil
	}
	grant := Grant{ID: uuid.New(), UserID: userID, Role: RoleUser}
	return s.repo.CreateGrant(ctx, grant)
}
