package blog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSlugTaken is returned when a slug collides with an existing post.
var ErrSlugTaken = errors.New("slug already in use")

// PGRepository implements blog persistence using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]Post, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blog_posts WHERE NOT $1 OR status = 'published'`, publishedOnly).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, slug, title, body, status, author_id, published_at, created_at, updated_at
FROM blog_posts WHERE NOT $1 OR status = 'published'
ORDER BY COALESCE(published_at, created_at) DESC LIMIT $2 OFFSET $3`, publishedOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Status, &p.AuthorID,
			&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (r *PGRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	return r.scanOne(ctx, `SELECT id, slug, title, body, status, author_id, published_at, created_at, updated_at
FROM blog_posts WHERE slug = $1`, slug)
}

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	return r.scanOne(ctx, `SELECT id, slug, title, body, status, author_id, published_at, created_at, updated_at
FROM blog_posts WHERE id = $1`, id)
}

func (r *PGRepository) scanOne(ctx context.Context, query string, arg any) (*Post, error) {
	var p Post
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Status, &p.AuthorID, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) Create(ctx context.Context, p Post) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO blog_posts (id, slug, title, body, status, author_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Slug, p.Title, p.Body, p.Status, p.AuthorID, p.CreatedAt, p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugTaken
	}
	return err
}

func (r *PGRepository) Update(ctx context.Context, p Post) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE blog_posts
SET slug = $2, title = $3, body = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.Slug, p.Title, p.Body, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrSlugTaken
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) Publish(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE blog_posts
SET status = 'published', published_at = $2, updated_at = $2 WHERE id = $1 AND status = 'draft'`, id, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
