package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vibra/internal/guard"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/session"
	tu "github.com/desertthunder/vibra/internal/testing"
)

// wire builds a client and session sharing one token store, the way the CLI does.
func wire(baseURL string, store session.Store) (*services.Client, *session.Session) {
	client := services.NewClient(services.Options{BaseURL: baseURL, Tokens: session.NewTokenSource(store)})
	sess := session.New(store, session.NewBackend(client), session.Options{ValidateOnStart: true})
	return client, sess
}

func TestSessionAgainstDevAPI(t *testing.T) {
	ctx := context.Background()
	_, baseURL := tu.NewDevAPI(t)
	store := session.NewMemoryStore()
	client, sess := wire(baseURL, store)
	defer sess.Teardown()

	if err := sess.Initialize(ctx); err != nil {
		t.Fatalf("expected clean start, got %v", err)
	}
	if d := guard.Evaluate(guard.RequireAuth, sess.State()); d.Status != guard.Redirected || d.Target != guard.TargetLogin {
		t.Errorf("expected anonymous user redirected to login, got %+v", d)
	}

	user, err := sess.Register(ctx, models.RegisterRequest{
		Email: "a@b.com", Password: "secret1", Username: "ab", DisplayName: "A B", Genres: []string{"Jazz"},
	})
	if err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}
	if st := sess.State(); !st.Authenticated() || st.User == nil || st.User.ID != user.ID {
		t.Fatalf("expected authenticated state, got %+v", st)
	}

	pl, err := client.Playlists().Create(ctx, models.CreatePlaylistRequest{Name: "Mine"})
	if err != nil {
		t.Fatalf("expected bearer-authenticated create, got %v", err)
	}

	t.Run("restored on a fresh start", func(t *testing.T) {
		_, fresh := wire(baseURL, store)
		defer fresh.Teardown()

		if err := fresh.Initialize(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		st := fresh.State()
		if st.IsLoading || !st.Authenticated() || st.User.Email != "a@b.com" {
			t.Errorf("expected restored session, got %+v", st)
		}
	})

	t.Run("other users cannot delete", func(t *testing.T) {
		otherStore := session.NewMemoryStore()
		otherClient, other := wire(baseURL, otherStore)
		defer other.Teardown()
		other.Initialize(ctx)
		if _, err := other.Register(ctx, models.RegisterRequest{Email: "c@d.com", Password: "secret1", Username: "cd"}); err != nil {
			t.Fatalf("expected register to succeed, got %v", err)
		}

		_, err := otherClient.Playlists().Delete(ctx, pl.ID)
		if code := services.StatusCode(err); code != 403 && code != 404 {
			t.Errorf("expected 403 or 404, got %v", err)
		}

		list, err := client.Playlists().List(ctx)
		if err != nil || len(list.Playlists) != 1 {
			t.Errorf("expected owner's playlists unchanged, got %+v, %v", list, err)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, other := wire(baseURL, session.NewMemoryStore())
		defer other.Teardown()
		other.Initialize(ctx)

		_, err := other.Login(ctx, "a@b.com", "wrong")
		var authErr *session.AuthError
		if !errors.As(err, &authErr) || authErr.Message != "Invalid email or password" {
			t.Errorf("expected server message, got %v", err)
		}
		if other.State().Authenticated() {
			t.Error("expected state unchanged after failed login")
		}
	})

	t.Run("logout", func(t *testing.T) {
		if err := sess.Logout(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := sess.Logout(ctx); err != nil {
			t.Errorf("expected second logout to succeed, got %v", err)
		}
		if st := sess.State(); st.Authenticated() || st.User != nil {
			t.Errorf("expected cleared state, got %+v", st)
		}
		if _, err := client.Profile().Get(ctx); !errors.Is(err, services.ErrUnauthorized) {
			t.Errorf("expected 401 without a token, got %v", err)
		}
	})
}

func TestTokenNearExpiry(t *testing.T) {
	ctx := context.Background()
	api, baseURL := tu.NewDevAPI(t)

	user, err := api.Store().Register(models.RegisterRequest{Email: "a@b.com", Password: "secret1", Username: "ab"})
	if err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}
	raw, err := api.Tokens().IssueUntil(user.ID, user.Email, time.Now().Add(5*time.Second))
	if err != nil {
		t.Fatalf("expected token, got %v", err)
	}

	store := session.NewMemoryStore()
	store.Save(ctx, raw)
	client := services.NewClient(services.Options{BaseURL: baseURL, Tokens: session.NewTokenSource(store)})
	sess := session.New(store, session.NewBackend(client), session.Options{})
	defer sess.Teardown()

	if err := sess.Initialize(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !sess.State().Authenticated() {
		t.Fatalf("expected unexpired token to be kept, got %+v", sess.State())
	}

	profile, err := client.Profile().Get(ctx)
	if err != nil {
		t.Fatalf("expected the persisted token to be sent, got %v", err)
	}
	if profile.Email != "a@b.com" {
		t.Errorf("expected a@b.com, got %s", profile.Email)
	}
}
