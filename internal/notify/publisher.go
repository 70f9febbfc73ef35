// Package notify pushes toast notifications to signed-in users over Redis
// pub/sub. The web frontend subscribes to its user's channel; deliveries are
// fire and forget.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Toast is what subscribers receive, serialized as JSON.
type Toast struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Publisher writes toasts to per-user Redis channels.
type Publisher struct {
	logger *slog.Logger
	client *redis.Client
}

// NewPublisher builds Publisher instance.
func NewPublisher(logger *slog.Logger, client *redis.Client) *Publisher {
	return &Publisher{logger: logger, client: client}
}

// ChannelFor returns the pub/sub channel for a user.
func ChannelFor(userID uuid.UUID) string {
	return "notify:user:" + userID.String()
}

// Publish sends one toast. A delivery failure is logged and swallowed; a
// missed toast must never fail the operation that produced it.
func (p *Publisher) Publish(ctx context.Context, userID uuid.UUID, kind, message string) error {
	payload, err := json.Marshal(Toast{Kind: kind, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("notify: marshal toast: %w", err)
	}
	if err := p.client.Publish(ctx, ChannelFor(userID), payload).Err(); err != nil {
		p.logger.Warn("toast delivery failed",
			slog.String("user_id", userID.String()),
			slog.String("kind", kind),
			slog.Any("error", err))
	}
	return nil
}
