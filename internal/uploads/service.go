package uploads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

const maxUploadSize = 10 << 20 // 10 MiB

var allowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ObjectStore is the remote blob store uploads are proxied to.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// RepositoryPort defines the metadata persistence the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, u Upload) error
	Get(ctx context.Context, id uuid.UUID) (*Upload, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Upload, int, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service proxies file uploads to object storage and records metadata. The
// two writes cannot share a transaction, so a saga compensates: if the
// metadata insert fails, the already stored object is deleted again.
type Service struct {
	logger *slog.Logger
	store  ObjectStore
	repo   RepositoryPort
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, store ObjectStore, repo RepositoryPort) *Service {
	return &Service{logger: logger, store: store, repo: repo}
}

// Store uploads one file and records its metadata.
func (s *Service) Store(ctx context.Context, ownerID uuid.UUID, filename, contentType string, body io.Reader, size int64) (*Upload, error) {
	if size <= 0 || size > maxUploadSize {
		return nil, fmt.Errorf("%w: file size must be between 1 byte and %d bytes", httpx.ErrValidation, maxUploadSize)
	}
	if !allowedContentTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported content type %q", httpx.ErrValidation, contentType)
	}

	id := uuid.New()
	key := objectKey(id, filename)
	upload := Upload{
		ID:          id,
		OwnerID:     ownerID,
		Key:         key,
		Filename:    path.Base(filename),
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}

	saga := shared.NewSaga(s.logger).
		Step(shared.SagaStep{
			Name: "store object",
			Do: func(ctx context.Context) error {
				url, err := s.store.Put(ctx, key, contentType, body, size)
				if err != nil {
					return err
				}
				upload.URL = url
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.store.Delete(ctx, key)
			},
		}).
		Step(shared.SagaStep{
			Name: "insert metadata",
			Do: func(ctx context.Context) error {
				return s.repo.Create(ctx, upload)
			},
		})

	if err := saga.Run(ctx); err != nil {
		return nil, fmt.Errorf("uploads: store %s: %w", upload.Filename, err)
	}
	return &upload, nil
}

// Get fetches upload metadata.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Upload, error) {
	upload, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, fmt.Errorf("%w: upload", httpx.ErrNotFound)
	}
	return upload, nil
}

// ListByOwner returns a user's uploads.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]Upload, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	out, total, err := s.repo.ListByOwner(ctx, ownerID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, perPage, total), nil
}

// Remove deletes an upload. Owners remove their own files; moderators may
// remove anything.
func (s *Service) Remove(ctx context.Context, actorID, id uuid.UUID, moderator bool) error {
	upload, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !moderator && upload.OwnerID != actorID {
		return fmt.Errorf("%w: you can only delete your own uploads", httpx.ErrForbidden)
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("uploads: delete metadata: %w", err)
	}
	// the metadata row is the source of truth; a dangling object is cleaned
	// up opportunistically and never fails the request
	if err := s.store.Delete(ctx, upload.Key); err != nil {
		s.logger.Warn("orphaned object left in storage",
			slog.String("key", upload.Key), slog.Any("error", err))
	}
	return nil
}

func objectKey(id uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return id.String() + ext
}
