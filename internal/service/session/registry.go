package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medagenda/backend/internal/domain"
)

const sessionKeyPrefix = "SESSION_"

// CacheRepository is the key-value store backing the registry. Absent keys
// are reported as domain.ErrNotFound.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Registry maps each identity id to its single currently-valid token. An
// overwrite supersedes the prior token, which is how revocation works even
// though tokens stay self-verifying until expiry. Entries carry a TTL equal
// to the token lifetime, so expiry needs no sweeper.
type Registry struct {
	cache CacheRepository
}

func NewRegistry(cache CacheRepository) *Registry {
	return &Registry{cache: cache}
}

func sessionKey(identityID int64) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, identityID)
}

// Set records token as the current session for identityID, unconditionally
// overwriting any prior entry. Last write wins under concurrent logins; the
// store's per-key atomicity is the only serialization needed.
func (r *Registry) Set(ctx context.Context, identityID int64, token string, ttl time.Duration) error {
	if err := r.cache.Set(ctx, sessionKey(identityID), token, ttl); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, err)
	}
	return nil
}

// Get returns the current token for identityID, or domain.ErrNotFound if no
// entry exists or it expired. Store failures surface as
// domain.ErrRegistryUnavailable so callers fail closed.
func (r *Registry) Get(ctx context.Context, identityID int64) (string, error) {
	token, err := r.cache.Get(ctx, sessionKey(identityID))
	if errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, err)
	}
	return token, nil
}

// Delete removes the entry for identityID and reports whether one existed.
func (r *Registry) Delete(ctx context.Context, identityID int64) (bool, error) {
	n, err := r.cache.Del(ctx, sessionKey(identityID))
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, err)
	}
	return n > 0, nil
}
