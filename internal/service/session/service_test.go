package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/pkg/auth"
)

type stubUsers struct {
	byUsername map[string]*domain.User
}

func (s *stubUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u, ok := s.byUsername[username]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.byUsername {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, u := range s.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

var passwordHash, _ = auth.HashPassword("correct")

func newTestService(cache CacheRepository) *AuthService {
	users := &stubUsers{byUsername: map[string]*domain.User{
		"drsmith": {
			ID:           1,
			Username:     "drsmith",
			Name:         "Dr. Smith",
			Email:        "drsmith@clinic.test",
			PasswordHash: passwordHash,
			Active:       true,
		},
		"retired": {
			ID:           2,
			Username:     "retired",
			PasswordHash: passwordHash,
			Active:       false,
		},
	}}
	tokens := auth.NewTokenManager("test-secret", "medagenda", "medagenda-api", time.Hour)
	return NewAuthService(users, tokens, NewRegistry(cache))
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(newFakeCache())

	token, user, err := svc.Login(ctx, "drsmith", "correct")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	identity, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.ID)
	assert.Equal(t, "Dr. Smith", identity.Name)
	assert.Equal(t, token, identity.Token)
}

func TestLogin_GenericFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(newFakeCache())

	// Unknown username, wrong password and inactive account all yield the
	// same outcome.
	_, _, err := svc.Login(ctx, "nobody", "correct")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "drsmith", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "retired", "correct")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_SecondLoginSupersedesFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(newFakeCache())

	tokenA, _, err := svc.Login(ctx, "drsmith", "correct")
	require.NoError(t, err)
	tokenB, _, err := svc.Login(ctx, "drsmith", "correct")
	require.NoError(t, err)
	require.NotEqual(t, tokenA, tokenB)

	_, err = svc.Authenticate(ctx, tokenA)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	_, err = svc.Authenticate(ctx, tokenB)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(newFakeCache())

	token, _, err := svc.Login(ctx, "drsmith", "correct")
	require.NoError(t, err)

	existed, err := svc.Logout(ctx, 1)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	// Idempotent: a second logout reports nothing to end, not an error.
	existed, err = svc.Logout(ctx, 1)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestAuthenticate_RegistryEntryExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newFakeCache()
	svc := newTestService(cache)

	token, _, err := svc.Login(ctx, "drsmith", "correct")
	require.NoError(t, err)

	// Simulate the registry entry lapsing while the token itself is still
	// structurally valid.
	require.NoError(t, cache.Set(ctx, "SESSION_1", token, -time.Second))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestAuthenticate_RegistryOutageFailsClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newFakeCache()
	svc := newTestService(cache)

	token, _, err := svc.Login(ctx, "drsmith", "correct")
	require.NoError(t, err)

	cache.failing = true
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeCache())
	_, err := svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
