package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	List(ctx context.Context, search string, limit, offset int) ([]User, int, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service handles user management business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns a page of users with pagination metadata.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, search, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", httpx.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// Delete removes an account. An admin may not delete their own account
// through the management endpoint.
func (s *Service) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot delete your own account", httpx.ErrPolicy)
	}
	affected, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "USER_DELETE",
			Entity:   "user",
			EntityID: userID.String(),
		})
	}
	return nil
}
