package teams

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
// Approval, rejection and ownership transfer are atomic: an implementation
// must leave no partial state behind on failure.
type RepositoryPort interface {
	ListTeams(ctx context.Context, limit, offset int) ([]Team, int, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*Team, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]Membership, error)
	GetMembership(ctx context.Context, teamID, userID uuid.UUID) (*Membership, error)
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) (int64, error)
	CreateRequest(ctx context.Context, req Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]Request, int, error)
	ApproveRequest(ctx context.Context, requestID, adminID uuid.UUID) (*Team, error)
	RejectRequest(ctx context.Context, requestID, adminID uuid.UUID, reason string) error
	TransferOwnership(ctx context.Context, teamID, fromUserID, toUserID uuid.UUID) error
}

// Notifier pushes a toast to a user. Failures are logged by the caller and
// never fail the request.
type Notifier interface {
	Publish(ctx context.Context, userID uuid.UUID, kind, message string) error
}

// Service handles team business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	audit    *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, notifier Notifier, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, notifier: notifier, audit: audit}
}

// List returns a page of teams.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Team, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	teams, total, err := s.repo.ListTeams(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return teams, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one team.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Team, error) {
	team, err := s.repo.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, fmt.Errorf("%w: team", httpx.ErrNotFound)
	}
	return team, nil
}

// Members lists team memberships.
func (s *Service) Members(ctx context.Context, teamID uuid.UUID) ([]Membership, error) {
	if _, err := s.Get(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, teamID)
}

// SubmitRequest files a team creation request on behalf of a user.
func (s *Service) SubmitRequest(ctx context.Context, requesterID uuid.UUID, name, tag, description string) (*Request, error) {
	req := Request{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Name:        name,
		Tag:         tag,
		Description: description,
		Status:      RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("teams: create request: %w", err)
	}
	return &req, nil
}

// Requests lists creation requests, optionally filtered by status.
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

// Approve turns a pending request into a team owned by the requester. The
// repository performs the whole decision atomically; if any step fails the
// request stays pending and may be retried.
func (s *Service) Approve(ctx context.Context, adminID, requestID uuid.UUID) (*Team, error) {
	team, err := s.repo.ApproveRequest(ctx, requestID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return nil, fmt.Errorf("%w: team request", httpx.ErrNotFound)
		case errors.Is(err, ErrRequestNotPending):
			return nil, fmt.Errorf("%w: request already decided", httpx.ErrPolicy)
		}
		return nil, fmt.Errorf("teams: approve request: %w", err)
	}
	s.recordAudit(ctx, adminID, "TEAM_REQUEST_APPROVE", requestID)
	s.notify(ctx, team.OwnerID, "team_request_approved", fmt.Sprintf("your team %q was approved", team.Name))
	return team, nil
}

// Reject declines a pending request with a reason.
func (s *Service) Reject(ctx context.Context, adminID, requestID uuid.UUID, reason string) error {
	if err := s.repo.RejectRequest(ctx, requestID, adminID, reason); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("%w: team request", httpx.ErrNotFound)
		case errors.Is(err, ErrRequestNotPending):
			return fmt.Errorf("%w: request already decided", httpx.ErrPolicy)
		}
		return fmt.Errorf("teams: reject request: %w", err)
	}
	s.recordAudit(ctx, adminID, "TEAM_REQUEST_REJECT", requestID)
	if req, err := s.repo.GetRequest(ctx, requestID); err == nil && req != nil {
		s.notify(ctx, req.RequesterID, "team_request_rejected", fmt.Sprintf("your team request %q was rejected", req.Name))
	}
	return nil
}

// TransferOwnership moves the owner role from the current owner to another
// user. The current owner may transfer directly; an admin may transfer on the
// owner's behalf, in which case the move runs from whoever owns the team now.
func (s *Service) TransferOwnership(ctx context.Context, actorID, teamID, newOwnerID uuid.UUID, asAdmin bool) error {
	fromID := actorID
	if asAdmin {
		team, err := s.Get(ctx, teamID)
		if err != nil {
			return err
		}
		fromID = team.OwnerID
	}
	if fromID == newOwnerID {
		return fmt.Errorf("%w: user already owns this team", httpx.ErrPolicy)
	}
	if err := s.repo.TransferOwnership(ctx, teamID, fromID, newOwnerID); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("%w: team", httpx.ErrNotFound)
		case errors.Is(err, ErrNotOwner):
			return fmt.Errorf("%w: only the team owner can transfer ownership", httpx.ErrForbidden)
		}
		return fmt.Errorf("teams: transfer ownership: %w", err)
	}
	s.recordAudit(ctx, actorID, "TEAM_OWNERSHIP_TRANSFER", teamID)
	s.notify(ctx, newOwnerID, "team_ownership", "you are now a team owner")
	return nil
}

// RemoveMember removes a member from the roster. The owner membership is
// protected: ownership has to be transferred first.
func (s *Service) RemoveMember(ctx context.Context, actorID, teamID, userID uuid.UUID) error {
	membership, err := s.repo.GetMembership(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("teams: find membership: %w", err)
	}
	if membership == nil {
		return fmt.Errorf("%w: membership", httpx.ErrNotFound)
	}
	if membership.Role == MemberRoleOwner {
		return fmt.Errorf("%w: transfer ownership before removing the owner", httpx.ErrPolicy)
	}
	affected, err := s.repo.RemoveMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("teams: remove member: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: membership", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "TEAM_MEMBER_REMOVE", teamID)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "team",
		EntityID: entityID.String(),
	})
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, kind, message string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Publish(ctx, userID, kind, message)
}
