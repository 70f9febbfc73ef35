package tournaments

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

// Sentinel errors surfaced by the repository.
var (
	ErrNotOpen           = errors.New("registration is not open")
	ErrFull              = errors.New("tournament is full")
	ErrAlreadyRegistered = errors.New("user already registered")
)

// PGRepository implements tournament persistence using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, status Status, limit, offset int) ([]Tournament, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tournaments WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, title, game, description, status, capacity, starts_at, created_by, created_at, updated_at
FROM tournaments WHERE ($1 = '' OR status = $1) ORDER BY starts_at ASC LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tournaments := []Tournament{}
	for rows.Next() {
		var t Tournament
		if err := rows.Scan(&t.ID, &t.Title, &t.Game, &t.Description, &t.Status, &t.Capacity, &t.StartsAt,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, total, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Tournament, error) {
	var t Tournament
	err := r.pool.QueryRow(ctx, `SELECT id, title, game, description, status, capacity, starts_at, created_by, created_at, updated_at
FROM tournaments WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Game, &t.Description, &t.Status, &t.Capacity, &t.StartsAt,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) Create(ctx context.Context, t Tournament) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO tournaments (id, title, game, description, status, capacity, starts_at, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Title, t.Game, t.Description, t.Status, t.Capacity, t.StartsAt, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PGRepository) Update(ctx context.Context, t Tournament) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tournaments
SET title = $2, game = $3, description = $4, capacity = $5, starts_at = $6, updated_at = $7
WHERE id = $1`, t.ID, t.Title, t.Game, t.Description, t.Capacity, t.StartsAt, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tournaments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tournament_id, user_id, registered_at
FROM tournament_registrations WHERE tournament_id = $1 ORDER BY registered_at ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []Registration{}
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.TournamentID, &reg.UserID, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// Register inserts a registration behind a row lock on the tournament, so two
// concurrent signups cannot both take the last slot.
func (r *PGRepository) Register(ctx context.Context, tournamentID, userID uuid.UUID) (*Registration, error) {
	var reg Registration
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status Status
		var capacity int
		err := tx.QueryRow(ctx, `SELECT status, capacity FROM tournaments WHERE id = $1 FOR UPDATE`, tournamentID).
			Scan(&status, &capacity)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != StatusOpen {
			return ErrNotOpen
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tournament_registrations
WHERE tournament_id = $1 AND user_id = $2)`, tournamentID, userID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = $1`, tournamentID).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return ErrFull
		}

		reg = Registration{ID: uuid.New(), TournamentID: tournamentID, UserID: userID, RegisteredAt: time.Now().UTC()}
		_, err = tx.Exec(ctx, `INSERT INTO tournament_registrations (id, tournament_id, user_id, registered_at)
VALUES ($1, $2, $3, $4)`, reg.ID, reg.TournamentID, reg.UserID, reg.RegisteredAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *PGRepository) Unregister(ctx context.Context, tournamentID, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tournament_registrations
WHERE tournament_id = $1 AND user_id = $2`, tournamentID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
