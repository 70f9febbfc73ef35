package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeSessionCleanup prunes expired session rows.
	TaskTypeSessionCleanup = "cleanup:sessions"
	// TaskTypeIdempotencyCleanup prunes stale idempotency keys.
	TaskTypeIdempotencyCleanup = "cleanup:idempotency"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSessionCleanupTask constructs the cron task that prunes sessions.
func NewSessionCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionCleanup, nil)
}

// NewIdempotencyCleanupTask constructs the cron task that prunes idempotency keys.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// Mailer delivers one message. The SMTP implementation lives in mailer.go; a
// nil-safe logging fallback keeps the worker usable without an SMTP host.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewSendEmailHandler returns the handler for TaskTypeSendEmail.
func NewSendEmailHandler(logger *slog.Logger, mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if mailer == nil {
			logger.Info("email skipped, no mailer configured",
				slog.String("to", payload.To), slog.String("subject", payload.Subject))
			return nil
		}
		if err := mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
			logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		return nil
	}
}
