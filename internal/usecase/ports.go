package usecase

import (
	"context"

	"github.com/y4gg/portfolio-api"
)

// BlogRepository defines persistence operations for blog posts.
type BlogRepository interface {
	List(ctx context.Context) ([]portfolio.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (portfolio.BlogPost, error)
	Create(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error)
	Update(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error)
	Delete(ctx context.Context, slug string) error
}

// KeyVerifier decides whether a submitted admin key grants write access.
type KeyVerifier interface {
	Verify(ctx context.Context, submittedKey string) bool
}

// EventSink receives change notifications after successful mutations.
type EventSink interface {
	Publish(ctx context.Context, event portfolio.Event) error
}
