// Package redis provides the Redis-backed session store: one live refresh
// token per user identity, expired by Redis TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
)

const defaultKeyPrefix = "refresh:"

// opTimeout bounds every store round trip so a slow Redis cannot stall
// request handling indefinitely.
const opTimeout = 3 * time.Second

// RefreshTokenStore implements ports.SessionStore on Redis. The key is the
// user identity, the value the currently-valid refresh token string.
type RefreshTokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRefreshTokenStore creates a store with the default key prefix.
func NewRefreshTokenStore(client redis.UniversalClient) *RefreshTokenStore {
	return &RefreshTokenStore{client: client, prefix: defaultKeyPrefix}
}

// NewRefreshTokenStoreWithPrefix creates a store with a custom key prefix.
func NewRefreshTokenStoreWithPrefix(client redis.UniversalClient, prefix string) *RefreshTokenStore {
	return &RefreshTokenStore{client: client, prefix: prefix}
}

// Set overwrites the identity's refresh token. The previous value, if any,
// is superseded atomically by the SET.
func (s *RefreshTokenStore) Set(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}
	if refreshToken == "" {
		return errors.New("refresh token cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+userID, refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the identity's current refresh token, or ports.ErrSessionNotFound.
func (s *RefreshTokenStore) Get(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ports.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrSessionNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Delete removes the identity's session entry. Missing entries are not an
// error.
func (s *RefreshTokenStore) Delete(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.client.Del(ctx, s.prefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}
