package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account and persists the returned token.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	req := models.RegisterRequest{
		Email:       strings.TrimSpace(cmd.String("email")),
		Password:    cmd.String("password"),
		Username:    strings.TrimSpace(cmd.String("username")),
		DisplayName: strings.TrimSpace(cmd.String("display-name")),
		Genres:      cmd.StringSlice("genre"),
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		return fmt.Errorf("%w: email, password and username are required", shared.ErrMissingArgument)
	}

	r.logger.Info("registering account", "email", req.Email, "username", req.Username)

	user, err := r.session.Register(ctx, req)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Account created. Signed in as %s (%s)\n", user.Name(), user.Email)
}

// AuthLogin signs in and persists the returned token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	r.logger.Info("signing in", "email", email)

	user, err := r.session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s (%s)\n", user.Name(), user.Email)
}

// AuthLogout clears the persisted token. Signing out twice is not an error.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(ctx); err != nil {
		return err
	}
	r.logger.Info("signed out")
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus restores the persisted session and reports who is signed in.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Initialize(ctx); err != nil {
		return err
	}
	st := r.session.State()

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Authenticated bool         `json:"authenticated"`
			User          *models.User `json:"user,omitempty"`
			BaseURL       string       `json:"base_url"`
		}{st.Authenticated(), st.User, r.client.BaseURL()}, true)
	}

	r.writePlain("API: %s\n", r.client.BaseURL())
	if !st.Authenticated() {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}
	r.writePlain("Authentication: ✓ Signed in\n")
	if st.User != nil {
		r.writePlain("User: %s (%s)\n", st.User.Name(), st.User.Email)
	}
	return nil
}

// requireAuth restores the session and fails when no token is held.
func (r *Runner) requireAuth(ctx context.Context) error {
	if r.session.State().IsLoading {
		if err := r.session.Initialize(ctx); err != nil {
			return err
		}
	}
	if !r.session.State().Authenticated() {
		return fmt.Errorf("%w: run 'vibra auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}
