package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
)

// TypeRefresh is the "typ" claim value marking refresh tokens. Access
// tokens carry no type marker.
const TypeRefresh = "refresh"

// Claims are the token claims used across the service. Access tokens carry
// the subject and role; refresh tokens carry the subject, a unique token id
// (jti), and typ=refresh.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the authorization role claim on access tokens.
	Role string `json:"role,omitempty"`

	// TokenType distinguishes refresh tokens from access tokens.
	TokenType string `json:"typ,omitempty"`
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool { return c.TokenType == TypeRefresh }

func newAccessClaims(userID string, role domainauth.Role, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}
}

func newRefreshClaims(userID string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType: TypeRefresh,
	}
}
