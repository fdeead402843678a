package server

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/desertthunder/vibra/internal/shared"
)

const tokenIssuer = "vibra-dev"

// DefaultTokenTTL matches the lifetime of tokens minted by the production API.
const DefaultTokenTTL = 24 * time.Hour

type identityClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenIssuer mints and verifies HS256 bearer tokens.
type TokenIssuer struct {
	key    []byte
	signer jose.Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer requires a secret of at least 32 bytes.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("%w: token secret must be at least 32 bytes", shared.ErrInvalidConfig)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}
	return &TokenIssuer{key: secret, signer: signer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the user that expires after the issuer's TTL.
func (t *TokenIssuer) Issue(userID, email string) (string, error) {
	return t.IssueUntil(userID, email, t.now().Add(t.ttl))
}

// IssueUntil signs a token with an explicit expiry.
func (t *TokenIssuer) IssueUntil(userID, email string, expiry time.Time) (string, error) {
	now := t.now()
	std := jwt.Claims{
		Issuer:   tokenIssuer,
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(expiry),
	}

	raw, err := jwt.Signed(t.signer).Claims(std).Claims(identityClaims{UserID: userID, Email: email}).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return raw, nil
}

// Verify checks the signature, issuer and expiry and returns the user id and email.
func (t *TokenIssuer) Verify(raw string) (string, string, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed token", shared.ErrAuthFailed)
	}

	var std jwt.Claims
	var id identityClaims
	if err := tok.Claims(t.key, &std, &id); err != nil {
		return "", "", fmt.Errorf("%w: bad signature", shared.ErrAuthFailed)
	}
	if err := std.ValidateWithLeeway(jwt.Expected{Issuer: tokenIssuer, Time: t.now()}, 0); err != nil {
		return "", "", fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
	}
	if id.UserID == "" {
		id.UserID = std.Subject
	}
	return id.UserID, id.Email, nil
}
