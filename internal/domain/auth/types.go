package auth

// Package auth contains domain-level types for authentication.
// It is pure and free of framework/adapter concerns.

// Role represents an application's authorization role.
// Kept in string form for easy embedding in token claims.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole maps a role claim to a known Role. ok is false for any value
// outside the recognized set; a structurally valid token with an unknown
// role claim must be rejected, not defaulted.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// Principal is the request-scoped authenticated identity populated by the
// token verification middleware from a verified access token. It is never
// persisted.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin returns true if the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// TokenPair is the result of login and rotation: a short-lived access token
// and the long-lived refresh token that supersedes any previous one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
