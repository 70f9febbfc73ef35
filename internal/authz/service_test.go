package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

type memoryGrantRepo struct {
	grants []Grant
	err    error
}

func (r *memoryGrantRepo) GrantsForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []Grant{}
	for _, g := range r.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *memoryGrantRepo) FindGrant(ctx context.Context, userID uuid.UUID, role Role) (*Grant, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.grants {
		if r.grants[i].UserID == userID && r.grants[i].Role == role {
			return &r.grants[i], nil
		}
	}
	return nil, nil
}

func (r *memoryGrantRepo) CreateGrant(ctx context.Context, grant Grant) error {
	if r.err != nil {
		return r.err
	}
	r.grants = append(r.grants, grant)
	return nil
}

func (r *memoryGrantRepo) DeleteGrant(ctx context.Context, userID uuid.UUID, role Role) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	kept := r.grants[:0]
	var removed int64
	for _, g := range r.grants {
		if g.UserID == userID && g.Role == role {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	r.grants = kept
	return removed, nil
}

func TestGrantRoleDuplicate(t *testing.T) {
	repo := &memoryGrantRepo{}
	svc := NewService(repo)
	user := uuid.New()
	admin := uuid.New()

	_, err := svc.GrantRole(context.Background(), user, RoleVip, &admin)
	require.NoError(t, err)

	_, err = svc.GrantRole(context.Background(), user, RoleVip, &admin)
	require.ErrorIs(t, err, httpx.ErrPolicy)
	require.Len(t, repo.grants, 1)
}

func TestGrantRoleUnknown(t *testing.T) {
	svc := NewService(&memoryGrantRepo{})
	_, err := svc.GrantRole(context.Background(), uuid.New(), Role("root"), nil)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRevokeOwnAdminRejected(t *testing.T) {
	admin := uuid.New()
	repo := &memoryGrantRepo{grants: []Grant{{ID: uuid.New(), UserID: admin, Role: RoleAdmin}}}
	svc := NewService(repo)

	err := svc.RevokeRole(context.Background(), admin, admin, RoleAdmin)
	require.ErrorIs(t, err, httpx.ErrPolicy)
	require.Len(t, repo.grants, 1, "grant must remain untouched")

	// Another admin may revoke it.
	other := uuid.New()
	require.NoError(t, svc.RevokeRole(context.Background(), other, admin, RoleAdmin))
	require.Empty(t, repo.grants)
}

func TestRevokeMissingGrant(t *testing.T) {
	svc := NewService(&memoryGrantRepo{})
	err := svc.RevokeRole(context.Background(), uuid.New(), uuid.New(), RoleVip)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestEnsureDefaultRoleIdempotent(t *testing.T) {
	repo := &memoryGrantRepo{}
	svc := NewService(repo)
	user := uuid.New()

	require.NoError(t, svc.EnsureDefaultRole(context.Background(), user))
	require.NoError(t, svc.EnsureDefaultRole(context.Background(), user))

	count := 0
	for _, g := range repo.grants {
		if g.UserID == user && g.Role == RoleUser {
			count++
		}
	}
	require.Equal(t, 1, count, "registering twice must yield exactly one user grant")
}

func TestRolesForUserLookupFailure(t *testing.T) {
	svc := NewService(&memoryGrantRepo{err: errors.New("connection reset")})
	_, err := svc.RolesForUser(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestRolesForUserEmptyIsNotError(t *testing.T) {
	svc := NewService(&memoryGrantRepo{})
	grants, err := svc.RolesForUser(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, grants)
}
