package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientPublicURLFallback(t *testing.T) {
	client, err := NewClient(context.Background(), Config{
		Endpoint:  "http://127.0.0.1:9000/",
		Region:    "us-east-1",
		Bucket:    "arenahub-uploads",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000/arenahub-uploads", client.publicURL)
}

func TestNewClientExplicitPublicURL(t *testing.T) {
	client, err := NewClient(context.Background(), Config{
		Endpoint:  "http://127.0.0.1:9000",
		Region:    "us-east-1",
		Bucket:    "arenahub-uploads",
		AccessKey: "minio",
		SecretKey: "minio123",
		PublicURL: "https://cdn.arenahub.gg/",
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.arenahub.gg", client.publicURL)
}
