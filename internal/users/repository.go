package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenahub/arenahub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user management.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of users plus the total count. Search matches email or
// username, case-insensitively.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]User, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = "WHERE email ILIKE $1 OR username ILIKE $1"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM users %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, email, username, is_active, created_at, updated_at
FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, 0, err
		}
		u.CreatedAt = createdAt.Time
		u.UpdatedAt = updatedAt.Time
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Get fetches one user.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `SELECT id, email, username, is_active, created_at, updated_at
FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Email, &u.Username, &u.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time
	return &u, nil
}

// Delete removes a user. Role grants and sessions cascade via foreign keys.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
