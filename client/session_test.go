package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/y4gg/portfolio-api"
)

type memoryKeyStore struct {
	key string
}

func (s *memoryKeyStore) Load() (string, error) { return s.key, nil }
func (s *memoryKeyStore) Save(key string) error { s.key = key; return nil }
func (s *memoryKeyStore) Clear() error          { s.key = ""; return nil }

// fakeServer emulates the auth and blog endpoints the session talks to.
func fakeServer(t *testing.T, secret string) (*httptest.Server, *map[string]portfolio.BlogPost) {
	t.Helper()

	posts := map[string]portfolio.BlogPost{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth", func(w http.ResponseWriter, r *http.Request) {
		if secret != "" && r.URL.Query().Get("value") == secret {
			w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	mux.HandleFunc("GET /blogs", func(w http.ResponseWriter, r *http.Request) {
		out := make([]portfolio.BlogPost, 0, len(posts))
		for _, p := range posts {
			out = append(out, p)
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("POST /blogs/blog", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Slug    string `json:"slug"`
			APIKey  string `json:"apiKey"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.APIKey != secret {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid API key"})
			return
		}
		if _, ok := posts[req.Slug]; ok {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "Blog post with this slug already exists"})
			return
		}
		post := portfolio.BlogPost{ID: "1", Title: req.Title, Content: req.Content, Slug: req.Slug}
		posts[req.Slug] = post
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(post)
	})

	mux.HandleFunc("DELETE /blogs/blog", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Slug   string `json:"slug"`
			APIKey string `json:"apiKey"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.APIKey != secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, ok := posts[req.Slug]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(posts, req.Slug)
		json.NewEncoder(w).Encode(map[string]string{"message": "Blog post deleted successfully"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &posts
}

func TestResumeWithoutKey(t *testing.T) {
	server, _ := fakeServer(t, "secret")
	session := NewSession(New(server.URL), &memoryKeyStore{})

	if session.State() != StateUnknown {
		t.Fatalf("expected initial state unknown, got %v", session.State())
	}

	state, err := session.Resume(context.Background())
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if state != StateUnauthenticated {
		t.Fatalf("expected unauthenticated without a persisted key, got %v", state)
	}
}

func TestLoginPersistsAndResumes(t *testing.T) {
	server, _ := fakeServer(t, "secret")
	store := &memoryKeyStore{}
	session := NewSession(New(server.URL), store)

	if err := session.Login(context.Background(), "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.State() != StateAuthenticated {
		t.Fatalf("expected authenticated after login, got %v", session.State())
	}
	if store.key != "secret" {
		t.Fatalf("expected key to be persisted, got %q", store.key)
	}

	// a fresh session with the same store models a page reload
	revived := NewSession(New(server.URL), store)
	state, err := revived.Resume(context.Background())
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if state != StateAuthenticated {
		t.Fatalf("expected authenticated after resume, got %v", state)
	}
}

func TestLoginRejectsBadKey(t *testing.T) {
	server, _ := fakeServer(t, "secret")
	store := &memoryKeyStore{}
	session := NewSession(New(server.URL), store)

	err := session.Login(context.Background(), "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if session.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", session.State())
	}
	if store.key != "" {
		t.Fatalf("rejected key must not be persisted")
	}
}

func TestResumeWithStaleKey(t *testing.T) {
	server, _ := fakeServer(t, "rotated")
	store := &memoryKeyStore{key: "old-secret"}
	session := NewSession(New(server.URL), store)

	state, err := session.Resume(context.Background())
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if state != StateUnauthenticated {
		t.Fatalf("expected stale key to settle unauthenticated, got %v", state)
	}
}

func TestLogoutClearsKey(t *testing.T) {
	server, _ := fakeServer(t, "secret")
	store := &memoryKeyStore{}
	session := NewSession(New(server.URL), store)

	if err := session.Login(context.Background(), "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := session.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if session.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated after logout, got %v", session.State())
	}
	if store.key != "" {
		t.Fatalf("expected persisted key to be cleared")
	}

	if _, err := session.CreatePost(context.Background(), "Hi", "World", "hi", nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestCreateDerivesSlugFromTitle(t *testing.T) {
	server, posts := fakeServer(t, "secret")
	session := NewSession(New(server.URL), &memoryKeyStore{})

	if err := session.Login(context.Background(), "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	created, err := session.CreatePost(context.Background(), "Hello World", "body", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Slug != "hello-world" {
		t.Fatalf("expected derived slug hello-world, got %q", created.Slug)
	}
	if _, ok := (*posts)["hello-world"]; !ok {
		t.Fatalf("post not stored under derived slug")
	}

	if err := session.DeletePost(context.Background(), "hello-world"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(*posts) != 0 {
		t.Fatalf("expected post removed")
	}
}

func TestFileKeyStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key")
	store := NewFileKeyStore(path)

	key, err := store.Load()
	if err != nil || key != "" {
		t.Fatalf("expected empty load from missing file, got %q, %v", key, err)
	}

	if err := store.Save("secret"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	key, err = store.Load()
	if err != nil || key != "secret" {
		t.Fatalf("expected persisted key, got %q, %v", key, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	key, _ = store.Load()
	if key != "" {
		t.Fatalf("expected cleared key, got %q", key)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("repeated clear must be a no-op, got %v", err)
	}
}
