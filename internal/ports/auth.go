// Package ports defines interfaces (hexagonal ports) for collaborators the
// services depend on. Implementations live in internal/adapters.
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by SessionStore.Get when no live session
// exists for the identity.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds the single currently-valid refresh token per user
// identity with a TTL. At most one live value exists per identity; a
// rotation is valid only if the presented token equals the stored value.
type SessionStore interface {
	// Set overwrites the stored refresh token for the identity. Any
	// previously stored value is superseded.
	Set(ctx context.Context, userID, refreshToken string, ttl time.Duration) error

	// Get returns the current refresh token for the identity, or
	// ErrSessionNotFound if no live session exists.
	Get(ctx context.Context, userID string) (string, error)

	// Delete removes the identity's session entry. Deleting a nonexistent
	// entry is not an error; the bool reports whether anything was removed.
	Delete(ctx context.Context, userID string) (bool, error)
}

// PasswordHasher hashes plaintext passwords and verifies them against
// stored hashes. The hash format is owned by the adapter.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns nil when the plaintext matches the hash.
	Verify(plaintext, hash string) error
}

// PresignedURL is a time-limited URL for direct client upload or download.
type PresignedURL struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// ObjectStorage generates presigned URLs for profile and post images.
// Entity payloads never flow through the backend.
type ObjectStorage interface {
	PresignPut(ctx context.Context, key, contentType string) (PresignedURL, error)
	PresignGet(ctx context.Context, key string) (PresignedURL, error)
}
