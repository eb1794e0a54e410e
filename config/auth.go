package config

import "time"

// AuthConfig contains token signing and session configuration.
//
// SigningSecret must decode to at least 32 bytes of key material; the
// token package rejects shorter secrets at construction time.
type AuthConfig struct {
	// SigningSecret is the base64-encoded HMAC key for JWT signing.
	SigningSecret string `env:"SECRET,required"`

	// AccessTTL is the lifetime of access tokens.
	AccessTTL time.Duration `env:"ACCESS_TTL"  envDefault:"30m"`

	// RefreshTTL is the lifetime of refresh tokens and the server-side
	// session record backing them.
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"336h"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.AccessTTL <= 0 {
		a.AccessTTL = 30 * time.Minute
	}
	if a.RefreshTTL <= 0 {
		a.RefreshTTL = 336 * time.Hour
	}
	// An access token outliving the refresh token would let clients keep
	// working after their session is gone.
	if a.AccessTTL > a.RefreshTTL {
		a.AccessTTL = a.RefreshTTL
	}
}
