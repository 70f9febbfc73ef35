package authz

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for role grants.
type Repository interface {
	GrantsForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error)
	FindGrant(ctx context.Context, userID uuid.UUID, role Role) (*Grant, error)
	CreateGrant(ctx context.Context, grant Grant) error
	DeleteGrant(ctx context.Context, userID uuid.UUID, role Role) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GrantsForUser returns every role grant held by the user. No grants is an
// empty slice, never an error.
func (r *PGRepository) GrantsForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, role, granted_by, granted_at
FROM user_roles WHERE user_id = $1 ORDER BY granted_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := []Grant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// FindGrant returns the grant for (user, role) or nil when absent.
func (r *PGRepository) FindGrant(ctx context.Context, userID uuid.UUID, role Role) (*Grant, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, role, granted_by, granted_at
FROM user_roles WHERE user_id = $1 AND role = $2 LIMIT 1`, userID, string(role))
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// CreateGrant inserts a new role grant.
func (r *PGRepository) CreateGrant(ctx context.Context, grant Grant) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (id, user_id, role, granted_by, granted_at)
VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`,
		grant.ID, grant.UserID, string(grant.Role), grant.GrantedBy, nullTime(grant.GrantedAt))
	return err
}

// DeleteGrant removes the grant for (user, role) and reports rows affected.
func (r *PGRepository) DeleteGrant(ctx context.Context, userID uuid.UUID, role Role) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, string(role))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanGrant(row pgx.Row) (Grant, error) {
	var g Grant
	var role string
	if err := row.Scan(&g.ID, &g.UserID, &role, &g.GrantedBy, &g.GrantedAt); err != nil {
		return Grant{}, err
	}
	g.Role = Role(role)
	return g, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ Repository = (*PGRepository)(nil)
