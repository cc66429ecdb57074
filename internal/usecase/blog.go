package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/y4gg/portfolio-api"
	"github.com/y4gg/portfolio-api/internal/domain"
)

// MutationInput is the validated input for creating or updating a post.
type MutationInput struct {
	Key     string
	Title   string
	Content string
	Slug    string
	Tags    []string
}

// BlogUsecase implements post CRUD. Reads are open; every mutation
// re-verifies the submitted key, since the key itself is the bearer
// credential and there is no server-side session.
type BlogUsecase struct {
	repo     BlogRepository
	verifier KeyVerifier
	events   EventSink
}

// NewBlogUsecase wires the usecase. events may be nil when no broker is
// configured.
func NewBlogUsecase(repo BlogRepository, verifier KeyVerifier, events EventSink) *BlogUsecase {
	return &BlogUsecase{repo: repo, verifier: verifier, events: events}
}

// List returns every post ordered by published descending. The order is
// enforced here even if the repository already sorts.
func (uc *BlogUsecase) List(ctx context.Context) ([]portfolio.BlogPost, error) {
	posts, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Published.After(posts[j].Published)
	})
	return posts, nil
}

func (uc *BlogUsecase) Get(ctx context.Context, slug string) (portfolio.BlogPost, error) {
	return uc.repo.GetBySlug(ctx, slug)
}

func (uc *BlogUsecase) Create(ctx context.Context, input MutationInput) (portfolio.BlogPost, error) {
	if !uc.verifier.Verify(ctx, input.Key) {
		return portfolio.BlogPost{}, domain.UnauthorizedError{}
	}
	if err := validate(input); err != nil {
		return portfolio.BlogPost{}, err
	}

	// Fast path for a friendly error. The unique index on slug is the
	// actual guard against concurrent identical-slug creates.
	_, err := uc.repo.GetBySlug(ctx, input.Slug)
	if err == nil {
		return portfolio.BlogPost{}, domain.ConflictError{Resource: "blog post"}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return portfolio.BlogPost{}, err
	}

	post := portfolio.BlogPost{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Content:   input.Content,
		Slug:      input.Slug,
		Tags:      input.Tags,
		Published: time.Now().UTC(),
	}

	created, err := uc.repo.Create(ctx, post)
	if err != nil {
		return portfolio.BlogPost{}, err
	}

	uc.notify(ctx, portfolio.EventCreated, created)
	return created, nil
}

// Update overwrites title, content, and tags on the post with the given
// slug. Slug and published timestamp never change.
func (uc *BlogUsecase) Update(ctx context.Context, input MutationInput) (portfolio.BlogPost, error) {
	if !uc.verifier.Verify(ctx, input.Key) {
		return portfolio.BlogPost{}, domain.UnauthorizedError{}
	}
	if err := validate(input); err != nil {
		return portfolio.BlogPost{}, err
	}

	existing, err := uc.repo.GetBySlug(ctx, input.Slug)
	if err != nil {
		return portfolio.BlogPost{}, err
	}

	existing.Title = input.Title
	existing.Content = input.Content
	if input.Tags != nil {
		existing.Tags = input.Tags
	}

	updated, err := uc.repo.Update(ctx, existing)
	if err != nil {
		return portfolio.BlogPost{}, err
	}

	uc.notify(ctx, portfolio.EventUpdated, updated)
	return updated, nil
}

// Delete removes the post permanently.
func (uc *BlogUsecase) Delete(ctx context.Context, key, slug string) error {
	if !uc.verifier.Verify(ctx, key) {
		return domain.UnauthorizedError{}
	}

	if err := uc.repo.Delete(ctx, slug); err != nil {
		return err
	}

	uc.notify(ctx, portfolio.EventDeleted, portfolio.BlogPost{Slug: slug})
	return nil
}

func validate(input MutationInput) error {
	if input.Title == "" || input.Content == "" || input.Slug == "" {
		return domain.InvalidInputError{Reason: "Title, content, and slug are required"}
	}
	if !portfolio.ValidSlug(input.Slug) {
		return domain.InvalidInputError{Reason: "Slug must contain only lowercase letters, digits, and hyphens"}
	}
	return nil
}

func (uc *BlogUsecase) notify(ctx context.Context, eventType string, post portfolio.BlogPost) {
	if uc.events == nil {
		return
	}

	event := portfolio.Event{Type: eventType, Slug: post.Slug}
	if eventType != portfolio.EventDeleted {
		p := post
		event.Post = &p
	}

	if err := uc.events.Publish(ctx, event); err != nil {
		slog.ErrorContext(
			ctx, "Failed to publish blog event",
			slog.String("error", err.Error()),
			slog.String("module", "blog"),
		)
	}
}
