package tournaments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// RepositoryPort defines the persistence operations the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, status Status, limit, offset int) ([]Tournament, int, error)
	Get(ctx context.Context, id uuid.UUID) (*Tournament, error)
	Create(ctx context.Context, t Tournament) error
	Update(ctx context.Context, t Tournament) (int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]Registration, error)
	Register(ctx context.Context, tournamentID, userID uuid.UUID) (*Registration, error)
	Unregister(ctx context.Context, tournamentID, userID uuid.UUID) (int64, error)
}

// Service handles tournament business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns a page of tournaments, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, page, perPage int) ([]Tournament, shared.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	p := shared.NewPagination(page, perPage, 0)
	tournaments, total, err := s.repo.List(ctx, status, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return tournaments, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one tournament.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tournament, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: tournament", httpx.ErrNotFound)
	}
	return t, nil
}

// Create adds a tournament in draft status.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, t Tournament) (*Tournament, error) {
	if t.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", httpx.ErrValidation)
	}
	now := time.Now().UTC()
	t.ID = uuid.New()
	t.Status = StatusDraft
	t.CreatedBy = actorID
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("tournaments: create: %w", err)
	}
	s.recordAudit(ctx, actorID, "TOURNAMENT_CREATE", t.ID)
	return &t, nil
}

// Update rewrites a tournament's details.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, t Tournament) error {
	if t.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", httpx.ErrValidation)
	}
	affected, err := s.repo.Update(ctx, t)
	if err != nil {
		return fmt.Errorf("tournaments: update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: tournament", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "TOURNAMENT_UPDATE", t.ID)
	return nil
}

// SetStatus moves a tournament through its lifecycle. Finished is terminal.
func (s *Service) SetStatus(ctx context.Context, actorID, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusFinished {
		return fmt.Errorf("%w: a finished tournament cannot change status", httpx.ErrPolicy)
	}
	if _, err := s.repo.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("tournaments: set status: %w", err)
	}
	s.recordAudit(ctx, actorID, "TOURNAMENT_STATUS", id)
	return nil
}

// Delete removes a tournament.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("tournaments: delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: tournament", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "TOURNAMENT_DELETE", id)
	return nil
}

// Registrations lists the participants of a tournament.
func (s *Service) Registrations(ctx context.Context, tournamentID uuid.UUID) ([]Registration, error) {
	if _, err := s.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.repo.ListRegistrations(ctx, tournamentID)
}

// Register signs a user up for an open tournament.
func (s *Service) Register(ctx context.Context, tournamentID, userID uuid.UUID) (*Registration, error) {
	reg, err := s.repo.Register(ctx, tournamentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return nil, fmt.Errorf("%w: tournament", httpx.ErrNotFound)
		case errors.Is(err, ErrNotOpen):
			return nil, fmt.Errorf("%w: registration is not open", httpx.ErrPolicy)
		case errors.Is(err, ErrFull):
			return nil, fmt.Errorf("%w: tournament is full", httpx.ErrPolicy)
		case errors.Is(err, ErrAlreadyRegistered):
			return nil, fmt.Errorf("%w: already registered", httpx.ErrDuplicate)
		}
		return nil, fmt.Errorf("tournaments: register: %w", err)
	}
	return reg, nil
}

// Unregister withdraws a user from a tournament.
func (s *Service) Unregister(ctx context.Context, tournamentID, userID uuid.UUID) error {
	affected, err := s.repo.Unregister(ctx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("tournaments: unregister: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: registration", httpx.ErrNotFound)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "tournament",
		EntityID: entityID.String(),
	})
}
