package teams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenahub/arenahub/internal/platform/db"
	"github.com/arenahub/arenahub/internal/shared"
)

// Sentinel errors surfaced by the repository. The service wraps them into the
// HTTP error taxonomy.
var (
	ErrRequestNotPending = errors.New("request is not pending")
	ErrNotOwner          = errors.New("user is not the team owner")
	ErrOwnerMembership   = errors.New("owner membership cannot be removed")
)

// PGRepository implements team persistence using PostgreSQL. Approval and
// ownership transfer are transactional: either every row changes or none do.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListTeams(ctx context.Context, limit, offset int) ([]Team, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, tag, description, owner_id, created_at, updated_at
FROM teams ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Tag, &t.Description, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		teams = append(teams, t)
	}
	return teams, total, rows.Err()
}

func (r *PGRepository) GetTeam(ctx context.Context, id uuid.UUID) (*Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, `SELECT id, name, tag, description, owner_id, created_at, updated_at
FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.Tag, &t.Description, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, team_id, user_id, role, joined_at
FROM team_members WHERE team_id = $1 ORDER BY joined_at ASC`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Membership{}
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *PGRepository) GetMembership(ctx context.Context, teamID, userID uuid.UUID) (*Membership, error) {
	var m Membership
	err := r.pool.QueryRow(ctx, `SELECT id, team_id, user_id, role, joined_at
FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID).
		Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveMember deletes a non-owner membership. The role predicate is part of
// the statement so a concurrent promotion cannot slip an owner through.
func (r *PGRepository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM team_members
WHERE team_id = $1 AND user_id = $2 AND role <> 'owner'`, teamID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) CreateRequest(ctx context.Context, req Request) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO team_requests (id, requester_id, name, tag, description, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.RequesterID, req.Name, req.Tag, req.Description, req.Status, req.CreatedAt)
	return err
}

func (r *PGRepository) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.pool.QueryRow(ctx, `SELECT id, requester_id, name, tag, description, status, reason, decided_by, decided_at, created_at
FROM team_requests WHERE id = $1`, id).
		Scan(&req.ID, &req.RequesterID, &req.Name, &req.Tag, &req.Description, &req.Status,
			&req.Reason, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM team_requests WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, requester_id, name, tag, description, status, reason, decided_by, decided_at, created_at
FROM team_requests WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.Name, &req.Tag, &req.Description, &req.Status,
			&req.Reason, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

// ApproveRequest flips the request to approved, creates the team and inserts
// the requester's owner membership in one transaction. A failure on any step
// rolls everything back, leaving the request pending.
func (r *PGRepository) ApproveRequest(ctx context.Context, requestID, adminID uuid.UUID) (*Team, error) {
	var team Team
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var req Request
		err := tx.QueryRow(ctx, `SELECT id, requester_id, name, tag, description, status
FROM team_requests WHERE id = $1 FOR UPDATE`, requestID).
			Scan(&req.ID, &req.RequesterID, &req.Name, &req.Tag, &req.Description, &req.Status)
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
		if _, err := tx.Exec(ctx, `UPDATE team_requests
SET status = 'approved', decided_by = $2, decided_at = $3 WHERE id = $1`, requestID, adminID, now); err != nil {
			return err
		}

		team = Team{
			ID:          uuid.New(),
			Name:        req.Name,
			Tag:         req.Tag,
			Description: req.Description,
			OwnerID:     req.RequesterID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := tx.Exec(ctx, `INSERT INTO teams (id, name, tag, description, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			team.ID, team.Name, team.Tag, team.Description, team.OwnerID, team.CreatedAt, team.UpdatedAt); err != nil {
			return fmt.Errorf("create team: %w", err)
		}

		_, err = tx.Exec(ctx, `INSERT INTO team_members (id, team_id, user_id, role, joined_at)
VALUES ($1, $2, $3, 'owner', $4)`, uuid.New(), team.ID, req.RequesterID, now)
		if err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *PGRepository) RejectRequest(ctx context.Context, requestID, adminID uuid.UUID, reason string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status RequestStatus
		err := tx.QueryRow(ctx, `SELECT status FROM team_requests WHERE id = $1 FOR UPDATE`, requestID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != RequestPending {
			return ErrRequestNotPending
		}
		_, err = tx.Exec(ctx, `UPDATE team_requests
SET status = 'rejected', reason = $2, decided_by = $3, decided_at = $4 WHERE id = $1`,
			requestID, reason, adminID, time.Now().UTC())
		return err
	})
}

// TransferOwnership demotes the current owner to member and promotes (or
// enrolls) the new owner, then updates the team row, all in one transaction.
func (r *PGRepository) TransferOwnership(ctx context.Context, teamID, fromUserID, toUserID uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var ownerID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT owner_id FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if ownerID != fromUserID {
			return ErrNotOwner
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `UPDATE team_members SET role = 'member'
WHERE team_id = $1 AND user_id = $2`, teamID, fromUserID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE team_members SET role = 'owner'
WHERE team_id = $1 AND user_id = $2`, teamID, toUserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `INSERT INTO team_members (id, team_id, user_id, role, joined_at)
VALUES ($1, $2, $3, 'owner', $4)`, uuid.New(), teamID, toUserID, now); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `UPDATE teams SET owner_id = $2, updated_at = $3 WHERE id = $1`, teamID, toUserID, now)
		return err
	})
}
