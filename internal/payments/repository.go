package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateEvent means the provider delivered an event we already stored.
var ErrDuplicateEvent = errors.New("event already recorded")

// PGRepository implements the payment event log using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Record appends an event. The unique index on provider_id makes redelivery
// a detectable no-op.
func (r *PGRepository) Record(ctx context.Context, e Event) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO payment_events (id, provider_id, type, payload, received_at)
VALUES ($1, $2, $3, $4, $5)`, e.ID, e.ProviderID, e.Type, e.Payload, e.ReceivedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEvent
	}
	return err
}

// List returns the most recent events.
func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]Event, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payment_events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, provider_id, type, payload, received_at
FROM payment_events ORDER BY received_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ProviderID, &e.Type, &e.Payload, &e.ReceivedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
