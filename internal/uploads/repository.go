package uploads

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements upload metadata persistence using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, u Upload) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO uploads (id, owner_id, key, url, filename, content_type, size, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.OwnerID, u.Key, u.URL, u.Filename, u.ContentType, u.Size, u.CreatedAt)
	return err
}

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Upload, error) {
	var u Upload
	err := r.pool.QueryRow(ctx, `SELECT id, owner_id, key, url, filename, content_type, size, created_at
FROM uploads WHERE id = $1`, id).
		Scan(&u.ID, &u.OwnerID, &u.Key, &u.URL, &u.Filename, &u.ContentType, &u.Size, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Upload, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM uploads WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, owner_id, key, url, filename, content_type, size, created_at
FROM uploads WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Upload{}
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.OwnerID, &u.Key, &u.URL, &u.Filename, &u.ContentType, &u.Size, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
