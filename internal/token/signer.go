// Package token implements the credential signer: issuance and verification
// of signed, time-bounded access and refresh tokens (HS256 JWTs).
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
)

// Verification failure kinds. Callers branch on these to pick HTTP-level
// error codes, so they must stay distinguishable.
var (
	ErrExpired          = errors.New("token: expired")
	ErrMalformed        = errors.New("token: malformed")
	ErrSignatureInvalid = errors.New("token: signature invalid")
)

// Signer issues and verifies HS256-signed tokens. The signing key is loaded
// once at construction and never rotated at runtime; Signer is immutable and
// safe for concurrent use.
type Signer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// SignerOptions groups construction parameters for a Signer.
type SignerOptions struct {
	// SecretBase64 is the base64 (standard or raw) encoded HMAC key.
	SecretBase64 string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	// Now overrides the clock; nil means time.Now. Tests use this to cross
	// expiry boundaries without sleeping.
	Now func() time.Time
}

// NewSigner decodes the configured secret and builds a Signer.
func NewSigner(opts SignerOptions) (*Signer, error) {
	key, err := decodeSecret(opts.SecretBase64)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(key) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Signer{
		key:        key,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        now,
	}, nil
}

func decodeSecret(s string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(s); err == nil {
		return key, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// IssueAccess produces a signed access token for the subject with its role
// claim, expiring accessTTL from now.
func (s *Signer) IssueAccess(userID string, role domainauth.Role) (string, error) {
	return s.sign(newAccessClaims(userID, role, s.accessTTL, s.now()))
}

// IssueRefresh produces a signed refresh token for the subject with a unique
// token id, expiring refreshTTL from now.
func (s *Signer) IssueRefresh(userID string) (string, error) {
	return s.sign(newRefreshClaims(userID, s.refreshTTL, s.now()))
}

// RefreshTTL returns the configured refresh-token lifetime. The session
// store entry and the cookie max-age both derive from it.
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Signer) sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string. Failures are reported as
// exactly one of ErrExpired, ErrSignatureInvalid, or ErrMalformed.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// classify maps jwt/v5 parse errors onto the three failure kinds. Anything
// unrecognized is treated as malformed rather than admitted.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}
