package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToUserChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userID := uuid.New()
	sub := client.Subscribe(context.Background(), ChannelFor(userID))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewPublisher(logger, client)
	require.NoError(t, pub.Publish(context.Background(), userID, "team_request_approved", "your team was approved"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var toast Toast
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &toast))
	require.Equal(t, "team_request_approved", toast.Kind)
	require.Equal(t, "your team was approved", toast.Message)
}

func TestPublishSwallowsDeliveryFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewPublisher(logger, client)
	require.NoError(t, pub.Publish(context.Background(), uuid.New(), "noop", "nobody listening"))
}
