package forums

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements forum persistence using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListThreads(ctx context.Context, limit, offset int) ([]Thread, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM forum_threads`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.title, t.author_id, t.locked, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM forum_posts p WHERE p.thread_id = t.id) AS post_count
FROM forum_threads t ORDER BY t.updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	threads := []Thread{}
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.AuthorID, &t.Locked, &t.CreatedAt, &t.UpdatedAt, &t.PostCount); err != nil {
			return nil, 0, err
		}
		threads = append(threads, t)
	}
	return threads, total, rows.Err()
}

func (r *PGRepository) GetThread(ctx context.Context, id uuid.UUID) (*Thread, error) {
	var t Thread
	err := r.pool.QueryRow(ctx, `SELECT t.id, t.title, t.author_id, t.locked, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM forum_posts p WHERE p.thread_id = t.id) AS post_count
FROM forum_threads t WHERE t.id = $1`, id).
		Scan(&t.ID, &t.Title, &t.AuthorID, &t.Locked, &t.CreatedAt, &t.UpdatedAt, &t.PostCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) CreateThread(ctx context.Context, t Thread) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO forum_threads (id, title, author_id, locked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`, t.ID, t.Title, t.AuthorID, t.Locked, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PGRepository) SetThreadLocked(ctx context.Context, id uuid.UUID, locked bool) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE forum_threads SET locked = $2, updated_at = $3 WHERE id = $1`,
		id, locked, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteThread removes a thread and its posts in one statement pair; the
// foreign key cascades the posts.
func (r *PGRepository) DeleteThread(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forum_threads WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) ListPosts(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]Post, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM forum_posts WHERE thread_id = $1`, threadID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, thread_id, author_id, body, created_at
FROM forum_posts WHERE thread_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`, threadID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Body, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (r *PGRepository) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	var p Post
	err := r.pool.QueryRow(ctx, `SELECT id, thread_id, author_id, body, created_at
FROM forum_posts WHERE id = $1`, id).Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Body, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) CreatePost(ctx context.Context, p Post) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO forum_posts (id, thread_id, author_id, body, created_at)
VALUES ($1, $2, $3, $4, $5)`, p.ID, p.ThreadID, p.AuthorID, p.Body, p.CreatedAt)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE forum_threads SET updated_at = $2 WHERE id = $1`, p.ThreadID, p.CreatedAt)
	return err
}

func (r *PGRepository) DeletePost(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forum_posts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
