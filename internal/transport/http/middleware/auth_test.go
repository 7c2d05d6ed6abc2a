package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/pkg/auth"
	"github.com/medagenda/backend/pkg/httputil"
)

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

type fakeCache struct {
	mu      sync.Mutex
	data    map[string]fakeEntry
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]fakeEntry)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection refused")
	}
	f.data[key] = fakeEntry{value: value.(string), expiresAt: time.Now().Add(expiration)}
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", errors.New("connection refused")
	}
	entry, ok := f.data[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", domain.ErrNotFound
	}
	return entry.value, nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, errors.New("connection refused")
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return n, nil
}

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

func newTestAuth(t *testing.T) (*session.AuthService, *fakeCache, string) {
	t.Helper()

	cache := newFakeCache()
	tokens := auth.NewTokenManager("test-secret", "medagenda", "medagenda-api", time.Hour)
	registry := session.NewRegistry(cache)
	users := &stubUsers{byUsername: map[string]*domain.User{
		"drsmith": {ID: 1, Username: "drsmith", Name: "Dr. Smith", Email: "drsmith@example.com", Active: true},
	}}
	svc := session.NewAuthService(users, tokens, registry)

	token, err := svc.StartSession(context.Background(), users.byUsername["drsmith"])
	require.NoError(t, err)

	return svc, cache, token
}

// echoIdentity responds 200 with the identity's name so tests can assert the
// handler actually received a verified context.
func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if identity == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(identity.Name))
	})
}

func TestRequireAuth_AllowlistedPathsBypass(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	guard := NewGuard(svc)

	reached := false
	handler := guard.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	for _, path := range []string{"/", "/healthz", "/api/auth/login", "/api/auth/register", "/assets/app.js", "/uploads/x.png"} {
		reached = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.True(t, reached, "expected %s to bypass auth", path)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	guard := NewGuard(svc)

	rec := httptest.NewRecorder()
	guard.RequireAuth(echoIdentity()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")
}

func TestRequireAuth_BearerToken(t *testing.T) {
	svc, _, token := newTestAuth(t)
	guard := NewGuard(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guard.RequireAuth(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr. Smith", rec.Body.String())
}

func TestRequireAuth_QueryParamOnStreamPathOnly(t *testing.T) {
	svc, _, token := newTestAuth(t)
	guard := NewGuard(svc)
	handler := guard.RequireAuth(echoIdentity())

	// Same token, query parameter, streaming path: accepted with the same
	// identity a bearer header would produce.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr. Smith", rec.Body.String())

	// Anywhere else the query parameter is ignored.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients?access_token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RevokedSession(t *testing.T) {
	svc, cache, token := newTestAuth(t)
	guard := NewGuard(svc)

	// Another login supersedes the registry entry.
	err := cache.Set(context.Background(), "SESSION_1", "some-newer-token", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guard.RequireAuth(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RegistryOutageFailsClosed(t *testing.T) {
	svc, cache, token := newTestAuth(t)
	guard := NewGuard(svc)
	cache.failing = true

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guard.RequireAuth(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	guard := NewGuard(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	guard.RequireAuth(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCookieAuth_ValidCookieSetsIdentity(t *testing.T) {
	svc, _, token := newTestAuth(t)
	guard := NewGuard(svc)
	handler := guard.CookieAuth(guard.RequireAuth(echoIdentity()))

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.AddCookie(&http.Cookie{Name: httputil.AuthCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr. Smith", rec.Body.String())
}

func TestCookieAuth_InvalidCookieClearedAndRejected(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	guard := NewGuard(svc)
	handler := guard.CookieAuth(guard.RequireAuth(echoIdentity()))

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.AddCookie(&http.Cookie{Name: httputil.AuthCookieName, Value: "stale-garbage"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Cookie layer clears the bad cookie and hands over to the guard, which
	// rejects since no other credential is present.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == httputil.AuthCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected the stale cookie to be cleared")
}
