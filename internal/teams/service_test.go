package teams

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// memoryTeamRepo mimics the transactional contract of the Postgres
// repository: decision methods either apply fully or leave state untouched.
type memoryTeamRepo struct {
	teams    map[uuid.UUID]*Team
	members  map[uuid.UUID][]Membership
	requests map[uuid.UUID]*Request

	failTeamInsert bool
}

func newMemoryTeamRepo() *memoryTeamRepo {
	return &memoryTeamRepo{
		teams:    map[uuid.UUID]*Team{},
		members:  map[uuid.UUID][]Membership{},
		requests: map[uuid.UUID]*Request{},
	}
}

func (r *memoryTeamRepo) ListTeams(ctx context.Context, limit, offset int) ([]Team, int, error) {
	out := []Team{}
	for _, t := range r.teams {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (r *memoryTeamRepo) GetTeam(ctx context.Context, id uuid.UUID) (*Team, error) {
	if t, ok := r.teams[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryTeamRepo) ListMembers(ctx context.Context, teamID uuid.UUID) ([]Membership, error) {
	return append([]Membership{}, r.members[teamID]...), nil
}

func (r *memoryTeamRepo) GetMembership(ctx context.Context, teamID, userID uuid.UUID) (*Membership, error) {
	for _, m := range r.members[teamID] {
		if m.UserID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryTeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) (int64, error) {
	kept := r.members[teamID][:0]
	var removed int64
	for _, m := range r.members[teamID] {
		if m.UserID == userID && m.Role != MemberRoleOwner {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.members[teamID] = kept
	return removed, nil
}

func (r *memoryTeamRepo) CreateRequest(ctx context.Context, req Request) error {
	copied := req
	r.requests[req.ID] = &copied
	return nil
}

func (r *memoryTeamRepo) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	if req, ok := r.requests[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryTeamRepo) ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]Request, int, error) {
	out := []Request{}
	for _, req := range r.requests {
		if status == "" || req.Status == status {
			out = append(out, *req)
		}
	}
	return out, len(out), nil
}

func (r *memoryTeamRepo) ApproveRequest(ctx context.Context, requestID, adminID uuid.UUID) (*Team, error) {
	req, ok := r.requests[requestID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if req.Status != RequestPending {
		return nil, ErrRequestNotPending
	}
	if r.failTeamInsert {
		// nothing below this point happened, same as a rolled back tx
		return nil, fmt.Errorf("create team: %w", errors.New("disk full"))
	}
	now := time.Now().UTC()
	team := &Team{ID: uuid.New(), Name: req.Name, Tag: req.Tag, OwnerID: req.RequesterID, CreatedAt: now, UpdatedAt: now}
	r.teams[team.ID] = team
	r.members[team.ID] = append(r.members[team.ID], Membership{
		ID: uuid.New(), TeamID: team.ID, UserID: req.RequesterID, Role: MemberRoleOwner, JoinedAt: now,
	})
	req.Status = RequestApproved
	req.DecidedBy = &adminID
	req.DecidedAt = &now
	copied := *team
	return &copied, nil
}

func (r *memoryTeamRepo) RejectRequest(ctx context.Context, requestID, adminID uuid.UUID, reason string) error {
	req, ok := r.requests[requestID]
	if !ok {
		return shared.ErrNotFound
	}
	if req.Status != RequestPending {
		return ErrRequestNotPending
	}
	now := time.Now().UTC()
	req.Status = RequestRejected
	req.Reason = reason
	req.DecidedBy = &adminID
	req.DecidedAt = &now
	return nil
}

func (r *memoryTeamRepo) TransferOwnership(ctx context.Context, teamID, fromUserID, toUserID uuid.UUID) error {
	team, ok := r.teams[teamID]
	if !ok {
		return shared.ErrNotFound
	}
	if team.OwnerID != fromUserID {
		return ErrNotOwner
	}
	found := false
	for i := range r.members[teamID] {
		switch r.members[teamID][i].UserID {
		case fromUserID:
			r.members[teamID][i].Role = MemberRoleMember
		case toUserID:
			r.members[teamID][i].Role = MemberRoleOwner
			found = true
		}
	}
	if !found {
		r.members[teamID] = append(r.members[teamID], Membership{
			ID: uuid.New(), TeamID: teamID, UserID: toUserID, Role: MemberRoleOwner, JoinedAt: time.Now().UTC(),
		})
	}
	team.OwnerID = toUserID
	return nil
}

func pendingRequest(t *testing.T, repo *memoryTeamRepo, requester uuid.UUID) *Request {
	t.Helper()
	svc := NewService(repo, nil, nil)
	req, err := svc.SubmitRequest(context.Background(), requester, "Night Owls", "OWL", "late night scrims")
	require.NoError(t, err)
	return req
}

func TestApproveCreatesTeamWithOwner(t *testing.T) {
	repo := newMemoryTeamRepo()
	requester := uuid.New()
	admin := uuid.New()
	req := pendingRequest(t, repo, requester)
	svc := NewService(repo, nil, nil)

	team, err := svc.Approve(context.Background(), admin, req.ID)
	require.NoError(t, err)
	require.Equal(t, requester, team.OwnerID)

	members, err := svc.Members(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, MemberRoleOwner, members[0].Role)

	stored, err := repo.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Equal(t, RequestApproved, stored.Status)
	require.Equal(t, admin, *stored.DecidedBy)
}

func TestApproveFailureLeavesRequestPending(t *testing.T) {
	repo := newMemoryTeamRepo()
	req := pendingRequest(t, repo, uuid.New())
	repo.failTeamInsert = true
	svc := NewService(repo, nil, nil)

	_, err := svc.Approve(context.Background(), uuid.New(), req.ID)
	require.Error(t, err)

	stored, getErr := repo.GetRequest(context.Background(), req.ID)
	require.NoError(t, getErr)
	require.Equal(t, RequestPending, stored.Status, "a failed approval must not consume the request")
	require.Empty(t, repo.teams, "no team may exist after a failed approval")

	// retry succeeds once the fault clears
	repo.failTeamInsert = false
	_, err = svc.Approve(context.Background(), uuid.New(), req.ID)
	require.NoError(t, err)
}

func TestApproveDecidedRequestRejected(t *testing.T) {
	repo := newMemoryTeamRepo()
	admin := uuid.New()
	req := pendingRequest(t, repo, uuid.New())
	svc := NewService(repo, nil, nil)

	_, err := svc.Approve(context.Background(), admin, req.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), admin, req.ID)
	require.ErrorIs(t, err, httpx.ErrPolicy)
}

func TestRejectRecordsReason(t *testing.T) {
	repo := newMemoryTeamRepo()
	admin := uuid.New()
	req := pendingRequest(t, repo, uuid.New())
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.Reject(context.Background(), admin, req.ID, "duplicate tag"))
	stored, err := repo.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Equal(t, RequestRejected, stored.Status)
	require.Equal(t, "duplicate tag", stored.Reason)
}

func TestTransferOwnership(t *testing.T) {
	repo := newMemoryTeamRepo()
	owner := uuid.New()
	newOwner := uuid.New()
	req := pendingRequest(t, repo, owner)
	svc := NewService(repo, nil, nil)

	team, err := svc.Approve(context.Background(), uuid.New(), req.ID)
	require.NoError(t, err)

	require.NoError(t, svc.TransferOwnership(context.Background(), owner, team.ID, newOwner, false))

	updated, err := svc.Get(context.Background(), team.ID)
	require.NoError(t, err)
	require.Equal(t, newOwner, updated.OwnerID)

	members, err := svc.Members(context.Background(), team.ID)
	require.NoError(t, err)
	roles := map[uuid.UUID]string{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	require.Equal(t, MemberRoleMember, roles[owner], "old owner keeps a seat as plain member")
	require.Equal(t, MemberRoleOwner, roles[newOwner])
}

func TestTransferOwnershipByNonOwner(t *testing.T) {
	repo := newMemoryTeamRepo()
	owner := uuid.New()
	req := pendingRequest(t, repo, owner)
	svc := NewService(repo, nil, nil)

	team, err := svc.Approve(context.Background(), uuid.New(), req.ID)
	require.NoError(t, err)

	err = svc.TransferOwnership(context.Background(), uuid.New(), team.ID, uuid.New(), false)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestTransferOwnershipByAdmin(t *testing.T) {
	repo := newMemoryTeamRepo()
	owner := uuid.New()
	newOwner := uuid.New()
	admin := uuid.New()
	req := pendingRequest(t, repo, owner)
	svc := NewService(repo, nil, nil)

	team, err := svc.Approve(context.Background(), admin, req.ID)
	require.NoError(t, err)

	// the admin is not the owner but transfers on the owner's behalf
	require.NoError(t, svc.TransferOwnership(context.Background(), admin, team.ID, newOwner, true))

	updated, err := svc.Get(context.Background(), team.ID)
	require.NoError(t, err)
	require.Equal(t, newOwner, updated.OwnerID)

	members, err := svc.Members(context.Background(), team.ID)
	require.NoError(t, err)
	roles := map[uuid.UUID]string{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	require.Equal(t, MemberRoleMember, roles[owner])
	require.Equal(t, MemberRoleOwner, roles[newOwner])
}

func TestTransferOwnershipByAdminToCurrentOwner(t *testing.T) {
	repo := newMemoryTeamRepo()
	owner := uuid.New()
	req := pendingRequest(t, repo, owner)
	svc := NewService(repo, nil, nil)

	team, err := svc.Approve(context.Background(), uuid.New(), req.ID)
	require.NoError(t, err)

	err = svc.TransferOwnership(context.Background(), uuid.New(), team.ID, owner, true)
	require.ErrorIs(t, err, httpx.ErrPolicy)
}

func TestRemoveOwnerRejected(t *testing.T) {
	repo := newMemoryTeamRepo()
	owner := uuid.New()
	req := pendingRequest(t, repo, owner)
	svc := NewService(repo, nil, nil)

	team, err := svc.Approve(context.Background(), uuid.New(), req.ID)
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), owner, team.ID, owner)
	require.ErrorIs(t, err, httpx.ErrPolicy)

	members, err := svc.Members(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1, "owner membership must survive")

	// after a transfer the old owner is removable
	successor := uuid.New()
	require.NoError(t, svc.TransferOwnership(context.Background(), owner, team.ID, successor, false))
	require.NoError(t, svc.RemoveMember(context.Background(), successor, team.ID, owner))
}

func TestRemoveUnknownMember(t *testing.T) {
	repo := newMemoryTeamRepo()
	req := pendingRequest(t, repo, uuid.New())
	svc := NewService(repo, nil, nil)
	team, err := svc.Approve(context.Background(), uuid.New(), req.ID)
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), uuid.New(), team.ID, uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
