package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, userID int, email string, exp time.Time) string {
	t.Helper()
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: testKey}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	custom := map[string]any{"user_id": userID, "email": email}
	raw, err := jwt.Signed(sig).Claims(jwt.Claims{Expiry: jwt.NewNumericDate(exp)}).Claims(custom).Serialize()
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

// fakeBackend answers auth calls from a fixed account table.
type fakeBackend struct {
	mu         sync.Mutex
	token      string
	user       models.User
	profileErr error
	profiles   int
}

func (f *fakeBackend) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if req.Email == f.user.Email {
		return nil, &services.RequestError{StatusCode: http.StatusConflict, Message: "User already exists"}
	}
	u := models.User{ID: "u2", Email: req.Email, Username: req.Username, DisplayName: req.DisplayName, FavoriteGenres: req.Genres}
	return &models.AuthResponse{Token: f.token, User: u}, nil
}

func (f *fakeBackend) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email != f.user.Email || req.Password != "secret1" {
		return nil, &services.RequestError{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"}
	}
	return &models.AuthResponse{Token: f.token, User: f.user}, nil
}

func (f *fakeBackend) Profile(context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	u := f.user
	return &u, nil
}

func newFake(t *testing.T) *fakeBackend {
	return &fakeBackend{
		token: signToken(t, 1, "a@b.com", time.Now().Add(time.Hour)),
		user:  models.User{ID: "1", Email: "a@b.com", Username: "ab", DisplayName: "A B"},
	}
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("New starts loading", func(t *testing.T) {
		s := New(&MemoryStore{}, newFake(t), Options{})
		st := s.State()
		if !st.IsLoading || st.Token != "" || st.User != nil {
			t.Errorf("expected loading anonymous state, got %+v", st)
		}
	})

	t.Run("Initialize", func(t *testing.T) {
		t.Run("without token", func(t *testing.T) {
			fake := newFake(t)
			s := New(&MemoryStore{}, fake, Options{ValidateOnStart: true})

			if err := s.Initialize(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			st := s.State()
			if st.IsLoading || st.Authenticated() {
				t.Errorf("expected anonymous loaded state, got %+v", st)
			}
			if fake.profiles != 0 {
				t.Error("expected no profile call without a token")
			}
		})

		t.Run("restores and validates token", func(t *testing.T) {
			fake := newFake(t)
			store := &MemoryStore{}
			store.Save(ctx, fake.token)

			s := New(store, fake, Options{ValidateOnStart: true})
			if err := s.Initialize(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			st := s.State()
			if st.IsLoading || st.Token != fake.token || st.User == nil || st.User.Username != "ab" {
				t.Errorf("expected hydrated state, got %+v", st)
			}
		})

		t.Run("expired token is cleared without a request", func(t *testing.T) {
			fake := newFake(t)
			store := &MemoryStore{}
			store.Save(ctx, signToken(t, 1, "a@b.com", time.Now().Add(-time.Minute)))

			s := New(store, fake, Options{ValidateOnStart: true})
			if err := s.Initialize(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if s.State().Authenticated() {
				t.Error("expected expired token to be dropped")
			}
			if _, err := store.Load(ctx); !IsNoToken(err) {
				t.Errorf("expected persisted token cleared, got %v", err)
			}
			if fake.profiles != 0 {
				t.Error("expected no profile call for an expired token")
			}
		})

		t.Run("rejected token is cleared", func(t *testing.T) {
			fake := newFake(t)
			fake.profileErr = &services.RequestError{StatusCode: http.StatusUnauthorized, Message: "Invalid or expired token"}
			store := &MemoryStore{}
			store.Save(ctx, fake.token)

			s := New(store, fake, Options{ValidateOnStart: true})
			s.Initialize(ctx)

			if s.State().Authenticated() {
				t.Error("expected rejected token to be dropped")
			}
			if _, err := store.Load(ctx); !IsNoToken(err) {
				t.Error("expected persisted token cleared")
			}
		})

		t.Run("network failure keeps token with provisional user", func(t *testing.T) {
			fake := newFake(t)
			fake.profileErr = &services.NetworkError{Method: "GET", Path: "/profile", Err: errors.New("refused")}
			store := &MemoryStore{}
			store.Save(ctx, fake.token)

			s := New(store, fake, Options{ValidateOnStart: true})
			if err := s.Initialize(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			st := s.State()
			if !st.Authenticated() || st.User == nil {
				t.Fatalf("expected token kept, got %+v", st)
			}
			if st.User.ID != "1" || st.User.Email != "a@b.com" {
				t.Errorf("expected user from claims, got %+v", st.User)
			}
			if st.IsLoading {
				t.Error("expected loading to finish")
			}
		})

		t.Run("validation disabled", func(t *testing.T) {
			fake := newFake(t)
			store := &MemoryStore{}
			store.Save(ctx, fake.token)

			s := New(store, fake, Options{ValidateOnStart: false})
			s.Initialize(ctx)

			if !s.State().Authenticated() || fake.profiles != 0 {
				t.Errorf("expected token restored without profile call, got %d calls", fake.profiles)
			}
		})

		t.Run("opaque token is validated", func(t *testing.T) {
			fake := newFake(t)
			store := &MemoryStore{}
			store.Save(ctx, "opaque-token")

			s := New(store, fake, Options{ValidateOnStart: true})
			s.Initialize(ctx)

			if !s.State().Authenticated() || fake.profiles != 1 {
				t.Error("expected opaque token kept after profile validation")
			}
		})
	})

	t.Run("Login then Logout", func(t *testing.T) {
		fake := newFake(t)
		store := &MemoryStore{}
		s := New(store, fake, Options{})
		s.Initialize(ctx)

		user, err := s.Login(ctx, "a@b.com", "secret1")
		if err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if user.DisplayName != "A B" {
			t.Errorf("expected user A B, got %s", user.DisplayName)
		}

		st := s.State()
		if st.Token == "" || st.User == nil {
			t.Fatalf("expected token and user after login, got %+v", st)
		}
		if persisted, _ := store.Load(ctx); persisted != st.Token {
			t.Error("expected token to be persisted")
		}

		if err := s.Logout(ctx); err != nil {
			t.Fatalf("expected logout to succeed, got %v", err)
		}
		st = s.State()
		if st.Token != "" || st.User != nil {
			t.Errorf("expected empty state after logout, got %+v", st)
		}

		if err := s.Logout(ctx); err != nil {
			t.Errorf("expected second logout to succeed, got %v", err)
		}
		if s.State() != st {
			t.Error("expected second logout to leave state unchanged")
		}
	})

	t.Run("Login failure leaves state", func(t *testing.T) {
		fake := newFake(t)
		s := New(&MemoryStore{}, fake, Options{})
		s.Initialize(ctx)

		_, err := s.Login(ctx, "a@b.com", "wrong")
		var ae *AuthError
		if !errors.As(err, &ae) {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if ae.Message != "Invalid email or password" {
			t.Errorf("expected server message, got %q", ae.Message)
		}
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, services.ErrUnauthorized) {
			t.Error("expected AuthError to match ErrAuthFailed and wrap the 401")
		}
		if s.State().Authenticated() {
			t.Error("expected state untouched")
		}
	})

	t.Run("Register", func(t *testing.T) {
		fake := newFake(t)
		store := &MemoryStore{}
		s := New(store, fake, Options{})
		s.Initialize(ctx)

		req := models.RegisterRequest{Email: "new@b.com", Password: "secret1", Username: "nb", DisplayName: "N B", Genres: []string{"Jazz"}}
		user, err := s.Register(ctx, req)
		if err != nil {
			t.Fatalf("expected register to succeed, got %v", err)
		}
		if user.Email != "new@b.com" || len(user.FavoriteGenres) != 1 {
			t.Errorf("unexpected user %+v", user)
		}
		if !s.State().Authenticated() {
			t.Error("expected authenticated state after register")
		}

		s.Logout(ctx)
		_, err = s.Register(ctx, models.RegisterRequest{Email: "a@b.com"})
		var ae *AuthError
		if !errors.As(err, &ae) || ae.Message != "User already exists" {
			t.Errorf("expected duplicate AuthError, got %v", err)
		}
	})

	t.Run("Persisted token survives restart", func(t *testing.T) {
		fake := newFake(t)
		store := &MemoryStore{}

		first := New(store, fake, Options{ValidateOnStart: true})
		first.Initialize(ctx)
		first.Login(ctx, "a@b.com", "secret1")
		first.Teardown()

		second := New(store, fake, Options{ValidateOnStart: true})
		second.Initialize(ctx)
		if second.State().Token != first.State().Token {
			t.Error("expected restored token to match")
		}
	})

	t.Run("Teardown", func(t *testing.T) {
		fake := newFake(t)
		s := New(&MemoryStore{}, fake, Options{})
		ch, cancel := s.Subscribe()
		defer cancel()

		s.Teardown()
		s.Teardown()

		for range ch {
		}
		if _, err := s.Login(ctx, "a@b.com", "secret1"); !errors.Is(err, shared.ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}
		if err := s.Logout(ctx); !errors.Is(err, shared.ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}
		if err := s.Initialize(ctx); !errors.Is(err, shared.ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}

		late, _ := s.Subscribe()
		if _, ok := <-late; ok {
			t.Error("expected closed channel when subscribing after teardown")
		}
	})

	t.Run("Subscribe receives latest state", func(t *testing.T) {
		fake := newFake(t)
		s := New(&MemoryStore{}, fake, Options{})
		ch, cancel := s.Subscribe()

		if st := <-ch; !st.IsLoading {
			t.Error("expected initial loading snapshot")
		}

		s.Initialize(ctx)
		s.Login(ctx, "a@b.com", "secret1")

		if st := <-ch; !st.Authenticated() {
			t.Errorf("expected latest authenticated snapshot, got %+v", st)
		}

		cancel()
		cancel()
		if _, ok := <-ch; ok {
			t.Error("expected channel closed after cancel")
		}
	})
}

// blockingBackend holds Profile until release is closed.
type blockingBackend struct {
	*fakeBackend
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Profile(ctx context.Context) (*models.User, error) {
	close(b.started)
	<-b.release
	return b.fakeBackend.Profile(ctx)
}

func TestInitializeRace(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T) (*Session, *MemoryStore, *blockingBackend, chan error) {
		fake := newFake(t)
		b := &blockingBackend{fakeBackend: fake, started: make(chan struct{}), release: make(chan struct{})}
		store := &MemoryStore{}
		store.Save(ctx, fake.token)
		s := New(store, b, Options{ValidateOnStart: true})

		done := make(chan error, 1)
		go func() { done <- s.Initialize(ctx) }()
		<-b.started
		return s, store, b, done
	}

	t.Run("logout during validation wins", func(t *testing.T) {
		s, store, b, done := start(t)

		if err := s.Logout(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(b.release)
		if err := <-done; err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if st := s.State(); st.Authenticated() || st.User != nil || st.IsLoading {
			t.Errorf("expected signed-out state, got %+v", st)
		}
		if _, err := store.Load(ctx); !IsNoToken(err) {
			t.Errorf("expected no persisted token, got %v", err)
		}
	})

	t.Run("login during validation wins", func(t *testing.T) {
		s, store, b, done := start(t)
		fresh := signToken(t, 1, "a@b.com", time.Now().Add(2*time.Hour))
		b.fakeBackend.token = fresh

		if _, err := s.Login(ctx, "a@b.com", "secret1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(b.release)
		<-done

		if st := s.State(); st.Token != fresh {
			t.Errorf("expected token from login, got %q", st.Token)
		}
		if raw, _ := store.Load(ctx); raw != fresh {
			t.Errorf("expected persisted token from login, got %q", raw)
		}
	})

	t.Run("rejection after login keeps the new token", func(t *testing.T) {
		s, store, b, done := start(t)
		b.fakeBackend.profileErr = &services.RequestError{StatusCode: http.StatusUnauthorized, Message: "Invalid token"}
		fresh := signToken(t, 1, "a@b.com", time.Now().Add(2*time.Hour))
		b.fakeBackend.token = fresh

		if _, err := s.Login(ctx, "a@b.com", "secret1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(b.release)
		<-done

		if !s.State().Authenticated() {
			t.Errorf("expected login to survive a stale rejection, got %+v", s.State())
		}
		if raw, _ := store.Load(ctx); raw != fresh {
			t.Errorf("expected persisted token from login, got %q", raw)
		}
	})
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	ts := NewTokenSource(store)

	if _, err := ts.Token(); !IsNoToken(err) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}

	store.Save(ctx, "opaque")
	tok, err := ts.Token()
	if err != nil || tok.AccessToken != "opaque" || !tok.Valid() {
		t.Errorf("expected valid opaque token, got %+v, %v", tok, err)
	}

	expired := signToken(t, 1, "a@b.com", time.Now().Add(-time.Hour))
	store.Save(ctx, expired)
	tok, err = ts.Token()
	if err != nil || tok.AccessToken != expired || !tok.Expiry.IsZero() {
		t.Errorf("expected persisted JWT returned without expiry, got %+v, %v", tok, err)
	}
}

func TestDecodeClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := DecodeClaims(signToken(t, 12, "a@b.com", exp))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.UserID != "12" || claims.Email != "a@b.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if !claims.Expiry.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, claims.Expiry)
	}
	if claims.Expired(time.Now()) || !claims.Expired(exp.Add(time.Second)) {
		t.Error("unexpected expiry evaluation")
	}

	if _, err := DecodeClaims("not-a-jwt"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
