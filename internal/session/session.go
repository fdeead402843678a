package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/shared"
	"golang.org/x/oauth2"
)

// State is a snapshot of the session.
//
// User is non-nil only when Token is non-empty.
type State struct {
	Token     string
	User      *models.User
	IsLoading bool
}

// Authenticated reports whether a token is held.
func (s State) Authenticated() bool { return s.Token != "" }

// Backend is the subset of the API the session talks to.
type Backend interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
}

type clientBackend struct{ c *services.Client }

// NewBackend adapts a [services.Client] to [Backend].
func NewBackend(c *services.Client) Backend { return clientBackend{c} }

func (b clientBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return b.c.Auth().Register(ctx, req)
}

func (b clientBackend) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return b.c.Auth().Login(ctx, req)
}

func (b clientBackend) Profile(ctx context.Context) (*models.User, error) {
	return b.c.Profile().Get(ctx)
}

// Options configures a [Session].
type Options struct {
	// ValidateOnStart checks a restored token against GET /profile during [Session.Initialize].
	ValidateOnStart bool
	Logger          *log.Logger
	Now             func() time.Time
}

// Session holds the token, the user and the loading flag for the whole process.
//
// It is created once and passed to every view. All methods are safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	state   State
	gen     uint64     // bumped on every state change
	persist sync.Mutex // pairs each store write with its state change
	closed  bool
	subs    map[int]chan State
	nextSub int

	store   Store
	backend Backend
	tokens  oauth2.TokenSource
	opts    Options
	logger  *log.Logger
}

// New creates a session in the loading state. Call [Session.Initialize] before rendering guarded views.
func New(store Store, backend Backend, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		state:   State{IsLoading: true},
		subs:    make(map[int]chan State),
		store:   store,
		backend: backend,
		tokens:  NewTokenSource(store),
		opts:    opts,
		logger:  opts.Logger,
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// TokenSource reads the persisted token on every call. Pass it to [services.Options].
func (s *Session) TokenSource() oauth2.TokenSource { return s.tokens }

// Subscribe returns a channel receiving each new state and a function to stop receiving.
//
// Only the latest state is buffered; a slow reader skips intermediate states.
// The channel is closed by the cancel function or by [Session.Teardown].
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Initialize restores the persisted token.
//
// Without a token the session becomes anonymous. An expired JWT is cleared without
// contacting the server. Otherwise, when validation is enabled, the profile is
// fetched: success hydrates the user, a 401 or 403 clears the token, and any other
// failure keeps the token with a user built from the token claims. IsLoading is
// false when Initialize returns.
//
// A login, register or logout that completes while Initialize is running wins:
// Initialize then leaves both the state and the persisted token alone.
func (s *Session) Initialize(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	gen := s.generation()

	raw, err := s.store.Load(ctx)
	if err != nil || raw == "" {
		s.setIf(gen, State{})
		if err != nil && !IsNoToken(err) {
			return fmt.Errorf("failed to read persisted token: %w", err)
		}
		return nil
	}

	claims, claimsErr := DecodeClaims(raw)
	if claimsErr == nil && claims.Expired(s.opts.Now()) {
		s.logger.Info("persisted token expired", "expiry", claims.Expiry)
		return s.clearIf(ctx, gen)
	}

	if !s.opts.ValidateOnStart {
		s.setIf(gen, State{Token: raw, User: claims.User()})
		return nil
	}

	user, err := s.backend.Profile(ctx)
	switch {
	case err == nil:
		s.setIf(gen, State{Token: raw, User: user})
	case services.IsAuthRejection(err):
		s.logger.Info("persisted token rejected", "status", services.StatusCode(err))
		return s.clearIf(ctx, gen)
	case errors.Is(err, context.Canceled):
		s.setIf(gen, State{Token: raw, User: claims.User()})
		return err
	default:
		s.logger.Warn("could not validate persisted token, keeping it", "error", err)
		s.setIf(gen, State{Token: raw, User: claims.User()})
	}
	return nil
}

// Register creates an account and signs in with the returned token.
//
// On failure the state is unchanged and the error is an [*AuthError].
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	resp, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, newAuthError("register", err)
	}
	return s.adopt(ctx, "register", resp)
}

// Login exchanges credentials for a token.
//
// On failure the state is unchanged and the error is an [*AuthError].
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	resp, err := s.backend.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, newAuthError("login", err)
	}
	return s.adopt(ctx, "login", resp)
}

// Logout forgets the token and the user. Logging out twice is the same as once.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.clearAndReset(ctx)
}

// Teardown closes every subscription. Later calls that change state fail with [shared.ErrSessionClosed].
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// adopt persists the token from resp and replaces the in-memory state.
func (s *Session) adopt(ctx context.Context, op string, resp *models.AuthResponse) (*models.User, error) {
	if resp == nil || resp.Token == "" {
		return nil, &AuthError{Op: op, Message: "server returned no token", Err: shared.ErrAPIRequest}
	}
	s.persist.Lock()
	defer s.persist.Unlock()
	if err := s.store.Save(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	user := resp.User
	s.set(State{Token: resp.Token, User: &user})
	s.logger.Info("signed in", "op", op, "user", user.Name())
	return &user, nil
}

func (s *Session) clearAndReset(ctx context.Context) error {
	s.persist.Lock()
	defer s.persist.Unlock()
	return s.clearLocked(ctx)
}

// clearLocked must be called with persist held.
func (s *Session) clearLocked(ctx context.Context) error {
	err := s.store.Clear(ctx)
	s.set(State{})
	if err != nil {
		return fmt.Errorf("failed to clear persisted token: %w", err)
	}
	return nil
}

// clearIf clears the persisted token and the state unless the state changed since gen.
func (s *Session) clearIf(ctx context.Context, gen uint64) error {
	s.persist.Lock()
	defer s.persist.Unlock()
	if s.generation() != gen {
		s.logger.Debug("session changed during initialize, keeping newer state")
		return nil
	}
	return s.clearLocked(ctx)
}

func (s *Session) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Session) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return shared.ErrSessionClosed
	}
	return nil
}

// set replaces the state and notifies subscribers without blocking.
func (s *Session) set(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(next)
}

// setIf is set, dropped when another change landed after gen was read.
func (s *Session) setIf(gen uint64, next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.Debug("session changed during initialize, dropping stale state")
		return false
	}
	s.apply(next)
	return true
}

// apply must be called with mu held.
func (s *Session) apply(next State) {
	if next.Token == "" {
		next.User = nil
	}
	if s.closed {
		return
	}
	s.gen++
	s.state = next

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
