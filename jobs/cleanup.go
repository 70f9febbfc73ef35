package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenahub/arenahub/internal/shared"
)

// Idempotency keys older than this can no longer collide with a retry.
const idempotencyRetention = 24 * time.Hour

// NewSessionCleanupHandler prunes expired rows from the sessions table. The
// Redis copies expire on their own TTL; this keeps the relational shadow in
// step.
func NewSessionCleanupHandler(logger *slog.Logger, pool *pgxpool.Pool) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tag, err := pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
		if err != nil {
			logger.Error("session cleanup", slog.Any("error", err))
			return err
		}
		if n := tag.RowsAffected(); n > 0 {
			logger.Info("expired sessions pruned", slog.Int64("count", n))
		}
		return nil
	}
}

// NewIdempotencyCleanupHandler prunes stale idempotency keys.
func NewIdempotencyCleanupHandler(logger *slog.Logger, store *shared.IdempotencyStore) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, idempotencyRetention); err != nil {
			logger.Error("idempotency cleanup", slog.Any("error", err))
			return err
		}
		return nil
	}
}
