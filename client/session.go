package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/y4gg/portfolio-api"
)

// ErrNotAuthenticated is returned by mutating session calls made while
// the gate is not in StateAuthenticated.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// State of the admin session gate.
type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// KeyStore persists the admin key between sessions, the way the web
// frontend keeps it in the api_key cookie.
type KeyStore interface {
	// Load returns the persisted key, or "" when none is stored.
	Load() (string, error)
	Save(key string) error
	Clear() error
}

// Session drives the admin gate. It re-validates the persisted key on
// every Resume and hands the key to mutating calls only while
// authenticated.
type Session struct {
	client *Client
	store  KeyStore

	mu    sync.Mutex
	state State
	key   string
}

func NewSession(client *Client, store KeyStore) *Session {
	return &Session{client: client, store: store, state: StateUnknown}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Resume replays the page-load flow: read the persisted key, verify it
// against the server, and settle in Authenticated or Unauthenticated.
// Verification errors also settle in Unauthenticated.
func (s *Session) Resume(ctx context.Context) (State, error) {
	key, err := s.store.Load()
	if err != nil || key == "" {
		s.setState(StateUnauthenticated, "")
		return StateUnauthenticated, err
	}

	s.setState(StateChecking, "")

	ok, err := s.client.VerifyKey(ctx, key)
	if err != nil || !ok {
		s.setState(StateUnauthenticated, "")
		return StateUnauthenticated, err
	}

	s.setState(StateAuthenticated, key)
	return StateAuthenticated, nil
}

// Login verifies a manually submitted key, persists it on success, and
// authenticates without requiring a Resume.
func (s *Session) Login(ctx context.Context, key string) error {
	ok, err := s.client.VerifyKey(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		s.setState(StateUnauthenticated, "")
		return ErrUnauthorized
	}

	if err := s.store.Save(key); err != nil {
		return err
	}
	s.setState(StateAuthenticated, key)
	return nil
}

// Logout clears the persisted key and forces Unauthenticated.
func (s *Session) Logout() error {
	s.setState(StateUnauthenticated, "")
	return s.store.Clear()
}

// CreatePost publishes a new post with the held key. An empty slug is
// derived from the title.
func (s *Session) CreatePost(ctx context.Context, title, content, slug string, tags []string) (portfolio.BlogPost, error) {
	key, err := s.activeKey()
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	if slug == "" {
		slug = portfolio.Slugify(title)
	}
	return s.client.CreatePost(ctx, key, title, content, slug, tags)
}

func (s *Session) UpdatePost(ctx context.Context, title, content, slug string, tags []string) (portfolio.BlogPost, error) {
	key, err := s.activeKey()
	if err != nil {
		return portfolio.BlogPost{}, err
	}
	return s.client.UpdatePost(ctx, key, title, content, slug, tags)
}

func (s *Session) DeletePost(ctx context.Context, slug string) error {
	key, err := s.activeKey()
	if err != nil {
		return err
	}
	return s.client.DeletePost(ctx, key, slug)
}

func (s *Session) setState(state State, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.key = key
}

func (s *Session) activeKey() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return "", ErrNotAuthenticated
	}
	return s.key, nil
}

// FileKeyStore keeps the key in a single file, the CLI's stand-in for
// the browser's api_key cookie.
type FileKeyStore struct {
	path string
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

// DefaultKeyPath places the key file under the user config directory.
func DefaultKeyPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "portfolio", "api_key"), nil
}

func (s *FileKeyStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileKeyStore) Save(key string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(key+"\n"), 0o600)
}

func (s *FileKeyStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
