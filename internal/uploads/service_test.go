package uploads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

type fakeStore struct {
	objects map[string][]byte
	putErr  error
	deletes []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	return "https://cdn.arenahub.gg/uploads/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	delete(f.objects, key)
	return nil
}

type memoryUploadRepo struct {
	uploads   map[uuid.UUID]*Upload
	createErr error
}

func newMemoryUploadRepo() *memoryUploadRepo {
	return &memoryUploadRepo{uploads: map[uuid.UUID]*Upload{}}
}

func (r *memoryUploadRepo) Create(ctx context.Context, u Upload) error {
	if r.createErr != nil {
		return r.createErr
	}
	copied := u
	r.uploads[u.ID] = &copied
	return nil
}

func (r *memoryUploadRepo) Get(ctx context.Context, id uuid.UUID) (*Upload, error) {
	if u, ok := r.uploads[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryUploadRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Upload, int, error) {
	out := []Upload{}
	for _, u := range r.uploads {
		if u.OwnerID == ownerID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (r *memoryUploadRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := r.uploads[id]; !ok {
		return 0, nil
	}
	delete(r.uploads, id)
	return 1, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreHappyPath(t *testing.T) {
	store := newFakeStore()
	repo := newMemoryUploadRepo()
	svc := NewService(discardLogger(), store, repo)

	body := strings.NewReader("png bytes")
	upload, err := svc.Store(context.Background(), uuid.New(), "avatar.PNG", "image/png", body, int64(body.Len()))
	require.NoError(t, err)
	require.NotEmpty(t, upload.URL)
	require.Equal(t, "avatar.PNG", upload.Filename)
	require.Contains(t, store.objects, upload.Key)
	require.Contains(t, upload.Key, ".png", "extension is folded to lower case")
	require.Len(t, repo.uploads, 1)
}

func TestStoreMetadataFailureCompensates(t *testing.T) {
	store := newFakeStore()
	repo := newMemoryUploadRepo()
	repo.createErr = errors.New("insert failed")
	svc := NewService(discardLogger(), store, repo)

	body := strings.NewReader("png bytes")
	_, err := svc.Store(context.Background(), uuid.New(), "avatar.png", "image/png", body, int64(body.Len()))
	require.Error(t, err)
	require.Empty(t, store.objects, "the stored object must be deleted when the metadata insert fails")
	require.Len(t, store.deletes, 1)
}

func TestStorePutFailureInsertsNothing(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("storage unavailable")
	repo := newMemoryUploadRepo()
	svc := NewService(discardLogger(), store, repo)

	body := strings.NewReader("png bytes")
	_, err := svc.Store(context.Background(), uuid.New(), "avatar.png", "image/png", body, int64(body.Len()))
	require.Error(t, err)
	require.Empty(t, repo.uploads)
	require.Empty(t, store.deletes, "nothing to compensate when the first step fails")
}

func TestStoreRejectsContentType(t *testing.T) {
	svc := NewService(discardLogger(), newFakeStore(), newMemoryUploadRepo())
	body := strings.NewReader("#!/bin/sh")
	_, err := svc.Store(context.Background(), uuid.New(), "x.sh", "text/x-shellscript", body, int64(body.Len()))
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestStoreRejectsOversize(t *testing.T) {
	svc := NewService(discardLogger(), newFakeStore(), newMemoryUploadRepo())
	_, err := svc.Store(context.Background(), uuid.New(), "big.png", "image/png", strings.NewReader(""), maxUploadSize+1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRemovePermissions(t *testing.T) {
	store := newFakeStore()
	repo := newMemoryUploadRepo()
	svc := NewService(discardLogger(), store, repo)
	owner := uuid.New()

	body := strings.NewReader("png bytes")
	upload, err := svc.Store(context.Background(), owner, "avatar.png", "image/png", body, int64(body.Len()))
	require.NoError(t, err)

	err = svc.Remove(context.Background(), uuid.New(), upload.ID, false)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, svc.Remove(context.Background(), owner, upload.ID, false))
	require.Empty(t, repo.uploads)
	require.Empty(t, store.objects)
}
