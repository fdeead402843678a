package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/vibra/internal/shared"
	"golang.org/x/oauth2"
)

// Store persists the bearer token across restarts.
//
// Load returns [shared.ErrTokenNotFound] when nothing is stored. Clear on an empty
// store is not an error.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", shared.ErrTokenNotFound
	}
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// storeTokenSource reads the persisted token on every call.
type storeTokenSource struct {
	store   Store
	timeout time.Duration
}

// NewTokenSource adapts store to an [oauth2.TokenSource].
//
// The token is re-read for each request, so a login or logout is visible to the
// next call without coordination. The token carries no expiry: whatever is
// persisted is sent, and [Session.Initialize] is what clears an expired token.
func NewTokenSource(store Store) oauth2.TokenSource {
	return &storeTokenSource{store: store, timeout: 5 * time.Second}
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, shared.ErrTokenNotFound
	}

	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}

// IsNoToken reports whether err means no token is stored.
func IsNoToken(err error) bool {
	return errors.Is(err, shared.ErrTokenNotFound)
}
