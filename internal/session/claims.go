package session

import (
	"fmt"
	"time"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// accepted lists the signature algorithms a Vibra token may declare.
var accepted = []jose.SignatureAlgorithm{jose.HS256, jose.HS384, jose.HS512, jose.RS256, jose.ES256}

// Claims are the identity fields carried by a Vibra bearer token.
type Claims struct {
	UserID  string
	Email   string
	Subject string
	Expiry  time.Time
}

// Expired reports whether the token had expired at now. Tokens without an expiry never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// User builds a provisional user from the claims, used when the profile cannot be fetched.
func (c Claims) User() *models.User {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return &models.User{ID: id, Email: c.Email}
}

// DecodeClaims reads the claims of a JWT without verifying its signature.
//
// The client never holds the signing key; the server stays the authority and this
// is only used to skip validating tokens that are already expired.
func DecodeClaims(raw string) (Claims, error) {
	tok, err := jwt.ParseSigned(raw, accepted)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: token is not a JWT: %w", shared.ErrInvalidInput, err)
	}

	var std jwt.Claims
	var custom struct {
		UserID any    `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := tok.UnsafeClaimsWithoutVerification(&std, &custom); err != nil {
		return Claims{}, fmt.Errorf("%w: unreadable token claims: %w", shared.ErrInvalidInput, err)
	}

	c := Claims{Email: custom.Email, Subject: std.Subject}
	switch v := custom.UserID.(type) {
	case nil:
	case float64:
		c.UserID = fmt.Sprintf("%.0f", v)
	default:
		c.UserID = fmt.Sprint(v)
	}
	if std.Expiry != nil {
		c.Expiry = std.Expiry.Time()
	}
	return c, nil
}
