package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/internal/transport/http/middleware"
	"github.com/medagenda/backend/pkg/auth"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

func (m *memCache) Del(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			n++
		}
	}
	return n, nil
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, users: make(map[int64]*domain.User)}
}

func (m *memUsers) add(u *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u
}

func (m *memUsers) Create(ctx context.Context, u *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, domain.ErrConflict
		}
	}
	id := m.nextID
	m.nextID++
	stored := *u
	stored.ID = id
	stored.Active = true
	m.users[id] = &stored
	return id, nil
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) List(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, id int64, name, email string, modifiedBy int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Name, u.Email = name, email
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id int64, passwordHash string, modifiedBy int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Active = false
	return nil
}

type recordingDisconnector struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingDisconnector) DisconnectUser(userID int64, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

// testServer wires the guard, auth handler and one protected route the way
// the real router does, minus the resource handlers.
func testServer(t *testing.T) (*chi.Mux, *memUsers, *memCache) {
	t.Helper()

	users := newMemUsers()
	cache := newMemCache()
	tokens := auth.NewTokenManager("test-secret", "medagenda", "medagenda-api", time.Hour)
	registry := session.NewRegistry(cache)
	svc := session.NewAuthService(users, tokens, registry)
	guard := middleware.NewGuard(svc)
	handler := NewAuthHandler(users, svc, cache, &recordingDisconnector{}, time.Hour, false)

	hash, err := auth.HashPassword("Password1")
	require.NoError(t, err)
	users.add(&domain.User{
		Username:     "drsmith",
		Name:         "Dr. Smith",
		Email:        "drsmith@example.com",
		PasswordHash: hash,
		Active:       true,
	})

	r := chi.NewRouter()
	r.Use(guard.CookieAuth)
	r.Use(guard.RequireAuth)
	r.Post("/api/auth/login", handler.Login)
	r.Post("/api/auth/register", handler.Register)
	r.Post("/api/auth/logout", handler.Logout)
	r.Get("/api/auth/me", handler.Me)
	r.Get("/api/patients", func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusOK, "patients")
	})

	return r, users, cache
}

func doLogin(t *testing.T, r http.Handler, username, password string) (int, string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		return rec.Code, ""
	}
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp.Token
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doPost(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLogin_WrongPassword(t *testing.T) {
	r, _, _ := testServer(t)

	code, _ := doLogin(t, r, "drsmith", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogin_UnknownUserSameResponse(t *testing.T) {
	r, _, _ := testServer(t)

	codeUnknown, _ := doLogin(t, r, "nobody", "Password1")
	codeWrongPw, _ := doLogin(t, r, "drsmith", "wrong")
	assert.Equal(t, codeWrongPw, codeUnknown)
}

func TestSessionLifecycle(t *testing.T) {
	r, _, _ := testServer(t)

	// Login yields token A; the protected endpoint accepts it.
	code, tokenA := doLogin(t, r, "drsmith", "Password1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, http.StatusOK, doGet(r, "/api/patients", tokenA).Code)

	// A second login yields token B and supersedes A.
	code, tokenB := doLogin(t, r, "drsmith", "Password1")
	require.Equal(t, http.StatusOK, code)
	require.NotEqual(t, tokenA, tokenB)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/api/patients", tokenA).Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/api/patients", tokenB).Code)

	// Logout ends B's session; afterwards B no longer authenticates.
	rec := doPost(r, "/api/auth/logout", tokenB)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/api/patients", tokenB).Code)
}

func TestLogout_EndsSessionThenIdempotent(t *testing.T) {
	r, _, cache := testServer(t)

	code, token := doLogin(t, r, "drsmith", "Password1")
	require.Equal(t, http.StatusOK, code)

	rec := doPost(r, "/api/auth/logout", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "session ended")

	// The registry entry is gone, so the token no longer authenticates and a
	// repeat logout cannot even reach the handler.
	_, err := cache.Get(context.Background(), "SESSION_1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, http.StatusUnauthorized, doPost(r, "/api/auth/logout", token).Code)
}

func TestLogout_NoActiveSession(t *testing.T) {
	// The registry entry can expire between the guard check and the handler
	// running. The handler then reports 404 with a message rather than
	// pretending a session ended.
	users := newMemUsers()
	cache := newMemCache()
	tokens := auth.NewTokenManager("test-secret", "medagenda", "medagenda-api", time.Hour)
	svc := session.NewAuthService(users, tokens, session.NewRegistry(cache))
	handler := NewAuthHandler(users, svc, cache, nil, time.Hour, false)

	identity := &domain.Identity{ID: 42, Name: "Dr. Smith"}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no active session")

	// Repeating the call stays 404, logout is idempotent.
	rec = httptest.NewRecorder()
	handler.Logout(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMe_CacheMissThenHit(t *testing.T) {
	r, _, _ := testServer(t)

	code, token := doLogin(t, r, "drsmith", "Password1")
	require.Equal(t, http.StatusOK, code)

	first := doGet(r, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := doGet(r, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	var resp struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, token, resp.Token)
	assert.Equal(t, "drsmith", resp.User.Username)
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	r, _, _ := testServer(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, post(`{"username":"ab","email":"a@b.c","password":"Password1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"username":"newdoc","email":"not-an-email","password":"Password1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"username":"newdoc","email":"new@example.com","password":"weak"}`).Code)

	rec := post(`{"username":"newdoc","name":"New Doc","email":"new@example.com","password":"Password1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = post(`{"username":"newdoc","name":"New Doc","email":"new@example.com","password":"Password1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
