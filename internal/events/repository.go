package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenahub/arenahub/internal/platform/db"
	"github.com/arenahub/arenahub/internal/shared"
)

// ErrRequestNotPending is returned when a decision targets an already
// decided request.
var ErrRequestNotPending = errors.New("request is not pending")

// PGRepository implements event persistence using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, upcomingOnly bool, limit, offset int) ([]Event, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE NOT $1 OR starts_at >= now()`, upcomingOnly).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, title, description, game, location, starts_at, ends_at, created_by, created_at, updated_at
FROM events WHERE NOT $1 OR starts_at >= now() ORDER BY starts_at ASC LIMIT $2 OFFSET $3`, upcomingOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Game, &e.Location, &e.StartsAt, &e.EndsAt,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	var e Event
	err := r.pool.QueryRow(ctx, `SELECT id, title, description, game, location, starts_at, ends_at, created_by, created_at, updated_at
FROM events WHERE id = $1`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Game, &e.Location, &e.StartsAt, &e.EndsAt,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PGRepository) Update(ctx context.Context, e Event) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE events
SET title = $2, description = $3, game = $4, location = $5, starts_at = $6, ends_at = $7, updated_at = $8
WHERE id = $1`, e.ID, e.Title, e.Description, e.Game, e.Location, e.StartsAt, e.EndsAt, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) CreateRequest(ctx context.Context, req Request) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO event_requests (id, requester_id, title, description, game, location, starts_at, ends_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.RequesterID, req.Title, req.Description, req.Game, req.Location, req.StartsAt, req.EndsAt, req.Status, req.CreatedAt)
	return err
}

func (r *PGRepository) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.pool.QueryRow(ctx, `SELECT id, requester_id, title, description, game, location, starts_at, ends_at, status, reason, decided_by, decided_at, created_at
FROM event_requests WHERE id = $1`, id).
		Scan(&req.ID, &req.RequesterID, &req.Title, &req.Description, &req.Game, &req.Location, &req.StartsAt,
			&req.EndsAt, &req.Status, &req.Reason, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PGRepository) ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]Request, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_requests WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, requester_id, title, description, game, location, starts_at, ends_at, status, reason, decided_by, decided_at, created_at
FROM event_requests WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.Title, &req.Description, &req.Game, &req.Location,
			&req.StartsAt, &req.EndsAt, &req.Status, &req.Reason, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

// ApproveRequest flips the request to approved and creates the event in one
// transaction. On failure the request stays pending.
func (r *PGRepository) ApproveRequest(ctx context.Context, requestID, adminID uuid.UUID) (*Event, error) {
	var event Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var req Request
		err := tx.QueryRow(ctx, `SELECT id, requester_id, title, description, game, location, starts_at, ends_at, status
FROM event_requests WHERE id = $1 FOR UPDATE`, requestID).
			Scan(&req.ID, &req.RequesterID, &req.Title, &req.Description, &req.Game, &req.Location,
				&req.StartsAt, &req.EndsAt, &req.Status)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if req.Status != RequestPending {
			return ErrRequestNotPending
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `UPDATE event_requests
SET status = 'approved', decided_by = $2, decided_at = $3 WHERE id = $1`, requestID, adminID, now); err != nil {
			return err
		}

		event = Event{
			ID:          uuid.New(),
			Title:       req.Title,
			Description: req.Description,
			Game:        req.Game,
			Location:    req.Location,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			CreatedBy:   req.RequesterID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, err = tx.Exec(ctx, `INSERT INTO events (id, title, description, game, location, starts_at, ends_at, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			event.ID, event.Title, event.Description, event.Game, event.Location, event.StartsAt, event.EndsAt,
			event.CreatedBy, event.CreatedAt, event.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *PGRepository) RejectRequest(ctx context.Context, requestID, adminID uuid.UUID, reason string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status RequestStatus
		err := tx.QueryRow(ctx, `SELECT status FROM event_requests WHERE id = $1 FOR UPDATE`, requestID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != RequestPending {
			return ErrRequestNotPending
		}
		_, err = tx.Exec(ctx, `UPDATE event_requests
SET status = 'rejected', reason = $2, decided_by = $3, decided_at = $4 WHERE id = $1`,
			requestID, reason, adminID, time.Now().UTC())
		return err
	})
}
