package session

import (
	"errors"

	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/shared"
)

// AuthError is returned when register or login is refused or cannot complete.
//
// Message is suitable for display; Err holds the underlying adapter error.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Op + ": " + e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches [shared.ErrAuthFailed].
func (e *AuthError) Is(target error) bool { return target == shared.ErrAuthFailed }

func newAuthError(op string, err error) *AuthError {
	msg := "invalid credentials"
	switch {
	case services.IsNetwork(err):
		msg = "unable to reach the server"
	case services.StatusCode(err) != 0:
		if m := services.Message(err); m != "" {
			msg = m
		}
	case errors.Is(err, shared.ErrAPIRequest):
		msg = "unexpected response from the server"
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}
