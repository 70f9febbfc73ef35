package events

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
	List(ctx context.Context, upcomingOnly bool, limit, offset int) ([]Event, int, error)
	Get(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, e Event) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CreateRequest(ctx context.Context, req Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]Request, int, error)
	ApproveRequest(ctx context.Context, requestID, adminID uuid.UUID) (*Event, error)
	RejectRequest(ctx context.Context, requestID, adminID uuid.UUID, reason string) error
}

// Notifier pushes a toast to a user.
type Notifier interface {
	Publish(ctx context.Context, userID uuid.UUID, kind, message string) error
}

// Service handles event business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	audit    *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, notifier Notifier, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, notifier: notifier, audit: audit}
}

// List returns a page of events, optionally limited to upcoming ones.
func (s *Service) List(ctx context.Context, upcomingOnly bool, page, perPage int) ([]Event, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	events, total, err := s.repo.List(ctx, upcomingOnly, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return events, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one event.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event", httpx.ErrNotFound)
	}
	return event, nil
}

// Update rewrites an event's details. The schedule must stay coherent.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, e Event) error {
	if !e.EndsAt.After(e.StartsAt) {
		return fmt.Errorf("%w: event must end after it starts", httpx.ErrValidation)
	}
	affected, err := s.repo.Update(ctx, e)
	if err != nil {
		return fmt.Errorf("events: update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: event", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "EVENT_UPDATE", e.ID)
	return nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("events: delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: event", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "EVENT_DELETE", id)
	return nil
}

// SubmitRequest files an event proposal on behalf of a user.
func (s *Service) SubmitRequest(ctx context.Context, requesterID uuid.UUID, draft Request) (*Request, error) {
	if !draft.EndsAt.After(draft.StartsAt) {
		return nil, fmt.Errorf("%w: event must end after it starts", httpx.ErrValidation)
	}
	req := Request{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Title:       draft.Title,
		Description: draft.Description,
		Game:        draft.Game,
		Location:    draft.Location,
		StartsAt:    draft.StartsAt,
		EndsAt:      draft.EndsAt,
		Status:      RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("events: create request: %w", err)
	}
	return &req, nil
}

// Requests lists event proposals, optionally filtered by status.
func (s *Service) Requests(ctx context.Context, status RequestStatus, page, perPage int) ([]Request, shared.Pagination, error) {
	if status != "" && status != RequestPending && status != RequestApproved && status != RequestRejected {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	p := shared.NewPagination(page, perPage, 0)
	requests, total, err := s.repo.ListRequests(ctx, status, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return requests, shared.NewPagination(page, perPage, total), nil
}

// Approve turns a pending proposal into a published event.
func (s *Service) Approve(ctx context.Context, adminID, requestID uuid.UUID) (*Event, error) {
	event, err := s.repo.ApproveRequest(ctx, requestID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return nil, fmt.Errorf("%w: event request", httpx.ErrNotFound)
		case errors.Is(err, ErrRequestNotPending):
			return nil, fmt.Errorf("%w: request already decided", httpx.ErrPolicy)
		}
		return nil, fmt.Errorf("events: approve request: %w", err)
	}
	s.recordAudit(ctx, adminID, "EVENT_REQUEST_APPROVE", requestID)
	s.notify(ctx, event.CreatedBy, "event_request_approved", fmt.Sprintf("your event %q was approved", event.Title))
	return event, nil
}

// Reject declines a pending proposal with a reason.
func (s *Service) Reject(ctx context.Context, adminID, requestID uuid.UUID, reason string) error {
	if err := s.repo.RejectRequest(ctx, requestID, adminID, reason); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("%w: event request", httpx.ErrNotFound)
		case errors.Is(err, ErrRequestNotPending):
			return fmt.Errorf("%w: request already decided", httpx.ErrPolicy)
		}
		return fmt.Errorf("events: reject request: %w", err)
	}
	s.recordAudit(ctx, adminID, "EVENT_REQUEST_REJECT", requestID)
	if req, err := s.repo.GetRequest(ctx, requestID); err == nil && req != nil {
		s.notify(ctx, req.RequesterID, "event_request_rejected", fmt.Sprintf("your event request %q was rejected", req.Title))
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
		Entity:   "event",
		EntityID: entityID.String(),
	})
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, kind, message string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Publish(ctx, userID, kind, message)
}
