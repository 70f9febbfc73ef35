package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// RepositoryPort defines the persistence operations the service depends on.
type RepositoryPort interface {
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]Post, int, error)
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	Create(ctx context.Context, p Post) error
	Update(ctx context.Context, p Post) (int64, error)
	Publish(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service handles blog business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns a page of posts. Public callers see published posts only.
func (s *Service) List(ctx context.Context, publishedOnly bool, page, perPage int) ([]Post, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	posts, total, err := s.repo.List(ctx, publishedOnly, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return posts, shared.NewPagination(page, perPage, total), nil
}

// GetBySlug fetches a published post by its slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != StatusPublished {
		return nil, fmt.Errorf("%w: post", httpx.ErrNotFound)
	}
	return post, nil
}

// Get fetches any post by id, drafts included.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post", httpx.ErrNotFound)
	}
	return post, nil
}

// Create stores a new draft. The slug derives from the title.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, title, body string) (*Post, error) {
	slug := Slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("%w: title yields an empty slug", httpx.ErrValidation)
	}
	now := time.Now().UTC()
	post := Post{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Body:      body,
		Status:    StatusDraft,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, fmt.Errorf("%w: a post with this title already exists", httpx.ErrDuplicate)
		}
		return nil, fmt.Errorf("blog: create: %w", err)
	}
	s.recordAudit(ctx, authorID, "BLOG_CREATE", post.ID)
	return &post, nil
}

// Update rewrites title and body, re-deriving the slug.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, title, body string) error {
	slug := Slugify(title)
	if slug == "" {
		return fmt.Errorf("%w: title yields an empty slug", httpx.ErrValidation)
	}
	affected, err := s.repo.Update(ctx, Post{ID: id, Slug: slug, Title: title, Body: body})
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return fmt.Errorf("%w: a post with this title already exists", httpx.ErrDuplicate)
		}
		return fmt.Errorf("blog: update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: post", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "BLOG_UPDATE", id)
	return nil
}

// Publish moves a draft to published. Publishing twice is a policy error.
func (s *Service) Publish(ctx context.Context, actorID, id uuid.UUID) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.Status == StatusPublished {
		return fmt.Errorf("%w: post is already published", httpx.ErrPolicy)
	}
	affected, err := s.repo.Publish(ctx, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("blog: publish: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: post", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "BLOG_PUBLISH", id)
	return nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("blog: delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: post", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "BLOG_DELETE", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "blog_post",
		EntityID: entityID.String(),
	})
}
