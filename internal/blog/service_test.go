package blog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

type memoryPostRepo struct {
	posts map[uuid.UUID]*Post
}

func newMemoryPostRepo() *memoryPostRepo {
	return &memoryPostRepo{posts: map[uuid.UUID]*Post{}}
}

func (r *memoryPostRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]Post, int, error) {
	out := []Post{}
	for _, p := range r.posts {
		if publishedOnly && p.Status != StatusPublished {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryPostRepo) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	if p, ok := r.posts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryPostRepo) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	for _, p := range r.posts {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryPostRepo) Create(ctx context.Context, p Post) error {
	for _, existing := range r.posts {
		if existing.Slug == p.Slug {
			return ErrSlugTaken
		}
	}
	copied := p
	r.posts[p.ID] = &copied
	return nil
}

func (r *memoryPostRepo) Update(ctx context.Context, p Post) (int64, error) {
	current, ok := r.posts[p.ID]
	if !ok {
		return 0, nil
	}
	for id, existing := range r.posts {
		if id != p.ID && existing.Slug == p.Slug {
			return 0, ErrSlugTaken
		}
	}
	current.Slug = p.Slug
	current.Title = p.Title
	current.Body = p.Body
	return 1, nil
}

func (r *memoryPostRepo) Publish(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	p, ok := r.posts[id]
	if !ok || p.Status != StatusDraft {
		return 0, nil
	}
	p.Status = StatusPublished
	p.PublishedAt = &at
	return 1, nil
}

func (r *memoryPostRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := r.posts[id]; !ok {
		return 0, nil
	}
	delete(r.posts, id)
	return 1, nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Spring Invitational 2026":     "spring-invitational-2026",
		"  Patch   Notes!!  ":          "patch-notes",
		"Åsa's Résumé":                 "asa-s-resume",
		"GG — well played":             "gg-well-played",
		"!!!":                          "",
		"MiXeD CaSe TiTle":             "mixed-case-title",
	}
	for title, want := range cases {
		require.Equal(t, want, Slugify(title), "title %q", title)
	}
}

func TestCreateDerivesSlug(t *testing.T) {
	svc := NewService(newMemoryPostRepo(), nil)
	post, err := svc.Create(context.Background(), uuid.New(), "Winter Clash Recap", "gg")
	require.NoError(t, err)
	require.Equal(t, "winter-clash-recap", post.Slug)
	require.Equal(t, StatusDraft, post.Status)
}

func TestCreateDuplicateSlug(t *testing.T) {
	svc := NewService(newMemoryPostRepo(), nil)
	_, err := svc.Create(context.Background(), uuid.New(), "Winter Clash Recap", "gg")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), "winter clash RECAP", "again")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestDraftIsNotPubliclyVisible(t *testing.T) {
	repo := newMemoryPostRepo()
	svc := NewService(repo, nil)
	author := uuid.New()

	post, err := svc.Create(context.Background(), author, "Roadmap", "soon tm")
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), post.Slug)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	require.NoError(t, svc.Publish(context.Background(), author, post.ID))
	published, err := svc.GetBySlug(context.Background(), post.Slug)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
}

func TestPublishTwice(t *testing.T) {
	svc := NewService(newMemoryPostRepo(), nil)
	author := uuid.New()
	post, err := svc.Create(context.Background(), author, "Roadmap", "soon tm")
	require.NoError(t, err)

	require.NoError(t, svc.Publish(context.Background(), author, post.ID))
	err = svc.Publish(context.Background(), author, post.ID)
	require.ErrorIs(t, err, httpx.ErrPolicy)
}

func TestCreateEmptySlug(t *testing.T) {
	svc := NewService(newMemoryPostRepo(), nil)
	_, err := svc.Create(context.Background(), uuid.New(), "???", "body")
	require.ErrorIs(t, err, httpx.ErrValidation)
}
