package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/backend/internal/domain"
)

// fakeCache is an in-memory CacheRepository with TTL support.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	failing bool
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeEntry)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("connection refused")
	}
	c.entries[key] = fakeEntry{
		value:     fmt.Sprint(value),
		expiresAt: time.Now().Add(expiration),
	}
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return "", errors.New("connection refused")
	}
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", domain.ErrNotFound
	}
	return entry.value, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return 0, errors.New("connection refused")
	}
	var n int64
	for _, key := range keys {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

func TestRegistry_SetGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRegistry(newFakeCache())

	_, err := r.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, r.Set(ctx, 1, "tok-a", time.Minute))
	got, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok-a", got)

	// Overwrite supersedes the prior entry.
	require.NoError(t, r.Set(ctx, 1, "tok-b", time.Minute))
	got, err = r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok-b", got)

	existed, err := r.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = r.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRegistry_TTLExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRegistry(newFakeCache())

	require.NoError(t, r.Set(ctx, 2, "tok", -time.Second))
	_, err := r.Get(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_StoreFailureFailsClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newFakeCache()
	cache.failing = true
	r := NewRegistry(cache)

	assert.ErrorIs(t, r.Set(ctx, 1, "tok", time.Minute), domain.ErrRegistryUnavailable)

	_, err := r.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)

	_, err = r.Delete(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)
}
