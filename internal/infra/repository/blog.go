package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/y4gg/portfolio-api"
	"github.com/y4gg/portfolio-api/internal/domain"
	"github.com/y4gg/portfolio-api/internal/infra/database/models"
)

type BlogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) List(ctx context.Context) ([]portfolio.BlogPost, error) {
	var records []models.Blog
	err := r.db.WithContext(ctx).
		Order("published DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	posts := make([]portfolio.BlogPost, 0, len(records))
	for _, record := range records {
		posts = append(posts, toPost(record))
	}
	return posts, nil
}

func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (portfolio.BlogPost, error) {
	var record models.Blog
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return portfolio.BlogPost{}, domain.NotFoundError{Resource: "blog post"}
	}
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	return toPost(record), nil
}

func (r *BlogRepository) Create(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error) {
	record := toModel(post)
	err := r.db.WithContext(ctx).Create(&record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// the unique index caught a racing create with the same slug
		return portfolio.BlogPost{}, domain.ConflictError{Resource: "blog post"}
	}
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	return toPost(record), nil
}

func (r *BlogRepository) Update(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Blog{}).
		Where("slug = ?", post.Slug).
		Updates(map[string]any{
			"title":   post.Title,
			"content": post.Content,
			"tags":    pq.StringArray(post.Tags),
		})
	if result.Error != nil {
		return portfolio.BlogPost{}, result.Error
	}
	if result.RowsAffected == 0 {
		return portfolio.BlogPost{}, domain.NotFoundError{Resource: "blog post"}
	}
	return r.GetBySlug(ctx, post.Slug)
}

func (r *BlogRepository) Delete(ctx context.Context, slug string) error {
	result := r.db.WithContext(ctx).Delete(&models.Blog{}, "slug = ?", slug)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "blog post"}
	}
	return nil
}

func toPost(record models.Blog) portfolio.BlogPost {
	return portfolio.BlogPost{
		ID:        record.ID,
		Title:     record.Title,
		Content:   record.Content,
		Published: record.Published,
		Slug:      record.Slug,
		Tags:      record.Tags,
	}
}

func toModel(post portfolio.BlogPost) models.Blog {
	return models.Blog{
		ID:        post.ID,
		Slug:      post.Slug,
		Title:     post.Title,
		Content:   post.Content,
		Tags:      pq.StringArray(post.Tags),
		Published: post.Published,
	}
}
