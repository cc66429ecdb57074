package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/y4gg/portfolio-api"
)

const defaultTimeout = 10 * time.Second

const listCacheKey = "blogs"

var (
	// ErrNotFound mirrors a 404 from the API.
	ErrNotFound = errors.New("blog post not found")
	// ErrUnauthorized mirrors a 401 from the API.
	ErrUnauthorized = errors.New("invalid API key")
	// ErrConflict mirrors a 409 from the API.
	ErrConflict = errors.New("blog post with this slug already exists")
)

// Client talks to the portfolio API. Reads are cached briefly; every
// mutation flushes the cache so the next read re-syncs from the server.
type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
}

func New(baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   cache.New(time.Minute, 5*time.Minute),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// VerifyKey asks the server whether key is the admin secret. A false
// return with nil error is a definitive rejection.
func (c *Client) VerifyKey(ctx context.Context, key string) (bool, error) {
	endpoint := c.baseURL + "/auth?value=" + url.QueryEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

func (c *Client) ListPosts(ctx context.Context) ([]portfolio.BlogPost, error) {
	if cached, found := c.cache.Get(listCacheKey); found {
		if posts, ok := cached.([]portfolio.BlogPost); ok {
			return posts, nil
		}
	}

	var posts []portfolio.BlogPost
	if err := c.getJSON(ctx, "/blogs", &posts); err != nil {
		return nil, err
	}
	c.cache.Set(listCacheKey, posts, cache.DefaultExpiration)
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, slug string) (portfolio.BlogPost, error) {
	var post portfolio.BlogPost
	err := c.getJSON(ctx, "/blogs/slug/"+url.PathEscape(slug), &post)
	return post, err
}

func (c *Client) CreatePost(ctx context.Context, key, title, content, slug string, tags []string) (portfolio.BlogPost, error) {
	body := map[string]any{
		"title":   title,
		"content": content,
		"slug":    slug,
		"apiKey":  key,
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}

	var created portfolio.BlogPost
	if err := c.doJSON(ctx, http.MethodPost, "/blogs/blog", body, http.StatusCreated, &created); err != nil {
		return portfolio.BlogPost{}, err
	}
	c.cache.Flush()
	return created, nil
}

func (c *Client) UpdatePost(ctx context.Context, key, title, content, slug string, tags []string) (portfolio.BlogPost, error) {
	body := map[string]any{
		"title":   title,
		"content": content,
		"slug":    slug,
		"apiKey":  key,
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}

	var updated portfolio.BlogPost
	if err := c.doJSON(ctx, http.MethodPut, "/blogs/blog", body, http.StatusOK, &updated); err != nil {
		return portfolio.BlogPost{}, err
	}
	c.cache.Flush()
	return updated, nil
}

func (c *Client) DeletePost(ctx context.Context, key, slug string) error {
	body := map[string]any{
		"slug":   slug,
		"apiKey": key,
	}

	if err := c.doJSON(ctx, http.MethodDelete, "/blogs/blog", body, http.StatusOK, nil); err != nil {
		return err
	}
	c.cache.Flush()
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, response any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(response)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, wantStatus int, response any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return responseError(resp)
	}
	if response == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(response)
}

func responseError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s", body.Error)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
