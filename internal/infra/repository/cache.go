package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"

	"github.com/y4gg/portfolio-api"
	"github.com/y4gg/portfolio-api/internal/usecase"
)

const (
	listCacheKey    = "blog:list"
	slugCachePrefix = "blog:slug:"
)

// Cache is the backend behind CachedBlogRepository. Implementations
// store opaque bytes and may drop entries at any time.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// CachedBlogRepository is a read-through cache over a BlogRepository.
// Every mutation invalidates the list and the touched slug, so readers
// re-sync from storage instead of trusting a stale copy.
type CachedBlogRepository struct {
	inner usecase.BlogRepository
	cache Cache
}

func NewCachedBlogRepository(inner usecase.BlogRepository, cache Cache) *CachedBlogRepository {
	return &CachedBlogRepository{inner: inner, cache: cache}
}

func (r *CachedBlogRepository) List(ctx context.Context) ([]portfolio.BlogPost, error) {
	if cached, found := r.cache.Get(listCacheKey); found {
		var posts []portfolio.BlogPost
		if err := json.Unmarshal(cached, &posts); err == nil {
			return posts, nil
		}
		r.cache.Delete(listCacheKey)
	}

	posts, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(posts); err == nil {
		r.cache.Set(listCacheKey, encoded)
	}
	return posts, nil
}

func (r *CachedBlogRepository) GetBySlug(ctx context.Context, slug string) (portfolio.BlogPost, error) {
	key := slugCachePrefix + slug
	if cached, found := r.cache.Get(key); found {
		var post portfolio.BlogPost
		if err := json.Unmarshal(cached, &post); err == nil {
			return post, nil
		}
		r.cache.Delete(key)
	}

	post, err := r.inner.GetBySlug(ctx, slug)
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	if encoded, err := json.Marshal(post); err == nil {
		r.cache.Set(key, encoded)
	}
	return post, nil
}

func (r *CachedBlogRepository) Create(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error) {
	created, err := r.inner.Create(ctx, post)
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	r.invalidate(created.Slug)
	return created, nil
}

func (r *CachedBlogRepository) Update(ctx context.Context, post portfolio.BlogPost) (portfolio.BlogPost, error) {
	updated, err := r.inner.Update(ctx, post)
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	r.invalidate(updated.Slug)
	return updated, nil
}

func (r *CachedBlogRepository) Delete(ctx context.Context, slug string) error {
	if err := r.inner.Delete(ctx, slug); err != nil {
		return err
	}
	r.invalidate(slug)
	return nil
}

func (r *CachedBlogRepository) invalidate(slug string) {
	r.cache.Delete(listCacheKey)
	r.cache.Delete(slugCachePrefix + slug)
}

// MemoryCache is the in-process backend, used when no memcached address
// is configured.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	encoded, ok := value.([]byte)
	return encoded, ok
}

func (c *MemoryCache) Set(key string, value []byte) {
	c.cache.Set(key, value, gocache.DefaultExpiration)
}

func (c *MemoryCache) Delete(key string) {
	c.cache.Delete(key)
}

// MemcachedCache shares cached posts across instances.
type MemcachedCache struct {
	client *memcache.Client
	ttl    int32
}

func NewMemcachedCache(client *memcache.Client, ttl time.Duration) *MemcachedCache {
	return &MemcachedCache{client: client, ttl: int32(ttl / time.Second)}
}

func (c *MemcachedCache) Get(key string) ([]byte, bool) {
	item, err := c.client.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (c *MemcachedCache) Set(key string, value []byte) {
	// best effort; a failed set just means a cache miss later
	_ = c.client.Set(&memcache.Item{Key: key, Value: value, Expiration: c.ttl})
}

func (c *MemcachedCache) Delete(key string) {
	_ = c.client.Delete(key)
}
