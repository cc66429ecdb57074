package repository

import (
	"context"
	"testing"
	"time"

	"github.com/y4gg/portfolio-api"
	"github.com/y4gg/portfolio-api/internal/domain"
)

type countingRepo struct {
	posts     map[string]portfolio.BlogPost
	listCalls int
	getCalls  int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{posts: map[string]portfolio.BlogPost{}}
}

func (r *countingRepo) List(ctx context.Context) ([]portfolio.BlogPost, error) {
	r.listCalls++
	out := make([]portfolio.BlogPost, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	return out, nil
}

func (r *countingRepo) GetBySlug(ctx context.Context, slug string) (portfolio.BlogPost, error) {
	r.getCalls++
	p, ok := r.posts[slug]
	if !ok {
		return portfolio.BlogPost{}, domain.NotFoundError{Resource: "blog post"}
	}
	return p, nil
}

func (r *countingRepo) Create(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error) {
	r.posts[post.Slug] = post
	return post, nil
}

func (r *countingRepo) Update(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error) {
	if _, ok := r.posts[post.Slug]; !ok {
		return portfolio.BlogPost{}, domain.NotFoundError{Resource: "blog post"}
	}
	r.posts[post.Slug] = post
	return post, nil
}

func (r *countingRepo) Delete(ctx context.Context, slug string) error {
	if _, ok := r.posts[slug]; !ok {
		return domain.NotFoundError{Resource: "blog post"}
	}
	delete(r.posts, slug)
	return nil
}

func TestListServedFromCache(t *testing.T) {
	inner := newCountingRepo()
	cached := NewCachedBlogRepository(inner, NewMemoryCache(time.Minute))

	if _, err := cached.Create(context.Background(), portfolio.BlogPost{ID: "1", Slug: "hi", Title: "Hi", Content: "World"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		posts, err := cached.List(context.Background())
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(posts) != 1 {
			t.Fatalf("expected 1 post, got %d", len(posts))
		}
	}
	if inner.listCalls != 1 {
		t.Fatalf("expected a single storage list, got %d", inner.listCalls)
	}
}

func TestMutationInvalidatesCache(t *testing.T) {
	inner := newCountingRepo()
	cached := NewCachedBlogRepository(inner, NewMemoryCache(time.Minute))

	if _, err := cached.Create(context.Background(), portfolio.BlogPost{ID: "1", Slug: "hi", Title: "Hi", Content: "World"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := cached.List(context.Background()); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, err := cached.GetBySlug(context.Background(), "hi"); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	updated := portfolio.BlogPost{ID: "1", Slug: "hi", Title: "Changed", Content: "Changed"}
	if _, err := cached.Update(context.Background(), updated); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := cached.GetBySlug(context.Background(), "hi")
	if err != nil {
		t.Fatalf("get after update failed: %v", err)
	}
	if got.Title != "Changed" {
		t.Fatalf("cache served a stale post after update: %+v", got)
	}

	posts, err := cached.List(context.Background())
	if err != nil {
		t.Fatalf("list after update failed: %v", err)
	}
	if posts[0].Title != "Changed" {
		t.Fatalf("cache served a stale list after update: %+v", posts)
	}
	if inner.listCalls != 2 {
		t.Fatalf("expected the list to be refetched after update, got %d calls", inner.listCalls)
	}

	if err := cached.Delete(context.Background(), "hi"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	posts, err = cached.List(context.Background())
	if err != nil {
		t.Fatalf("list after delete failed: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("cache served deleted posts: %+v", posts)
	}
}

func TestGetCachesSinglePost(t *testing.T) {
	inner := newCountingRepo()
	cached := NewCachedBlogRepository(inner, NewMemoryCache(time.Minute))

	if _, err := cached.Create(context.Background(), portfolio.BlogPost{ID: "1", Slug: "hi", Title: "Hi", Content: "World"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := cached.GetBySlug(context.Background(), "hi"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
	}
	if inner.getCalls != 1 {
		t.Fatalf("expected a single storage get, got %d", inner.getCalls)
	}
}
