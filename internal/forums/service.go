package forums

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// RepositoryPort defines the persistence operations the service depends on.
type RepositoryPort interface {
	ListThreads(ctx context.Context, limit, offset int) ([]Thread, int, error)
	GetThread(ctx context.Context, id uuid.UUID) (*Thread, error)
	CreateThread(ctx context.Context, t Thread) error
	SetThreadLocked(ctx context.Context, id uuid.UUID, locked bool) (int64, error)
	DeleteThread(ctx context.Context, id uuid.UUID) (int64, error)
	ListPosts(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]Post, int, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	CreatePost(ctx context.Context, p Post) error
	DeletePost(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service handles forum business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Threads returns a page of threads, most recently active first.
func (s *Service) Threads(ctx context.Context, page, perPage int) ([]Thread, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	threads, total, err := s.repo.ListThreads(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return threads, shared.NewPagination(page, perPage, total), nil
}

// Thread fetches one thread.
func (s *Service) Thread(ctx context.Context, id uuid.UUID) (*Thread, error) {
	t, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: thread", httpx.ErrNotFound)
	}
	return t, nil
}

// CreateThread opens a discussion with its first post.
func (s *Service) CreateThread(ctx context.Context, authorID uuid.UUID, title, body string) (*Thread, error) {
	now := time.Now().UTC()
	t := Thread{ID: uuid.New(), Title: title, AuthorID: authorID, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.CreateThread(ctx, t); err != nil {
		return nil, fmt.Errorf("forums: create thread: %w", err)
	}
	if body != "" {
		post := Post{ID: uuid.New(), ThreadID: t.ID, AuthorID: authorID, Body: body, CreatedAt: now}
		if err := s.repo.CreatePost(ctx, post); err != nil {
			return nil, fmt.Errorf("forums: create opening post: %w", err)
		}
		t.PostCount = 1
	}
	return &t, nil
}

// SetLocked locks or unlocks a thread. Locked threads accept no new posts.
func (s *Service) SetLocked(ctx context.Context, actorID, threadID uuid.UUID, locked bool) error {
	affected, err := s.repo.SetThreadLocked(ctx, threadID, locked)
	if err != nil {
		return fmt.Errorf("forums: lock thread: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: thread", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "THREAD_LOCK", threadID)
	return nil
}

// DeleteThread removes a thread and every post under it.
func (s *Service) DeleteThread(ctx context.Context, actorID, threadID uuid.UUID) error {
	affected, err := s.repo.DeleteThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("forums: delete thread: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: thread", httpx.ErrNotFound)
	}
	s.recordAudit(ctx, actorID, "THREAD_DELETE", threadID)
	return nil
}

// Posts returns a page of posts in a thread, oldest first.
func (s *Service) Posts(ctx context.Context, threadID uuid.UUID, page, perPage int) ([]Post, shared.Pagination, error) {
	if _, err := s.Thread(ctx, threadID); err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, 0)
	posts, total, err := s.repo.ListPosts(ctx, threadID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return posts, shared.NewPagination(page, perPage, total), nil
}

// CreatePost appends a reply to an unlocked thread.
func (s *Service) CreatePost(ctx context.Context, authorID, threadID uuid.UUID, body string) (*Post, error) {
	thread, err := s.Thread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Locked {
		return nil, fmt.Errorf("%w: thread is locked", httpx.ErrPolicy)
	}
	post := Post{ID: uuid.New(), ThreadID: threadID, AuthorID: authorID, Body: body, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("forums: create post: %w", err)
	}
	return &post, nil
}

// DeletePost removes a post. Authors may delete their own posts; moderators
// may delete anything. The handler decides which case applies.
func (s *Service) DeletePost(ctx context.Context, actorID, postID uuid.UUID, moderator bool) error {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("forums: find post: %w", err)
	}
	if post == nil {
		return fmt.Errorf("%w: post", httpx.ErrNotFound)
	}
	if !moderator && post.AuthorID != actorID {
		return fmt.Errorf("%w: you can only delete your own posts", httpx.ErrForbidden)
	}
	if _, err := s.repo.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("forums: delete post: %w", err)
	}
	s.recordAudit(ctx, actorID, "POST_DELETE", postID)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "forum",
		EntityID: entityID.String(),
	})
}
