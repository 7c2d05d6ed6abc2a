package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/internal/transport/http/middleware"
	"github.com/medagenda/backend/pkg/auth"
	"github.com/medagenda/backend/pkg/httputil"
)

// UserStore is the user persistence surface the handlers need;
// *postgres.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email string, modifiedBy int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, modifiedBy int64) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

// Disconnector lets the auth layer kick live WebSocket connections when
// their session is superseded or ended.
type Disconnector interface {
	DisconnectUser(userID int64, reason string)
}

type AuthHandler struct {
	Users         UserStore
	Auth          *session.AuthService
	Cache         session.CacheRepository // optional, may be nil
	ConnManager   Disconnector            // optional, may be nil
	CookieTTL     time.Duration
	SecureCookies bool
}

func NewAuthHandler(users UserStore, authSvc *session.AuthService, cache session.CacheRepository, cm Disconnector, cookieTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		Users:         users,
		Auth:          authSvc,
		Cache:         cache,
		ConnManager:   cm,
		CookieTTL:     cookieTTL,
		SecureCookies: secureCookies,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}

	token, user, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	// A fresh login supersedes any other device's session; drop its live
	// connection too.
	if h.ConnManager != nil {
		h.ConnManager.DisconnectUser(user.ID, "Logged in from another device")
	}

	httputil.SetAuthCookie(w, token, h.CookieTTL, h.SecureCookies)
	respond(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"message": "login successful",
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	existed, err := h.Auth.Logout(r.Context(), identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	if h.ConnManager != nil {
		h.ConnManager.DisconnectUser(identity.ID, "Logged out")
	}
	httputil.ClearAuthCookie(w)

	if !existed {
		respondMessage(w, http.StatusNotFound, "no active session")
		return
	}
	respondMessage(w, http.StatusOK, "session ended")
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		respondMessage(w, http.StatusBadRequest, "username must be between 3 and 50 characters")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondMessage(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hashed,
	}
	id, err := h.Users.Create(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}
	user.ID = id
	user.Active = true

	token, err := h.Auth.StartSession(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}

	httputil.SetAuthCookie(w, token, h.CookieTTL, h.SecureCookies)
	respond(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Me returns the caller's profile, cached in Redis for an hour.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cacheKey := fmt.Sprintf("user_profile:%d", identity.ID)

	if h.Cache != nil {
		cached, err := h.Cache.Get(r.Context(), cacheKey)
		if err == nil && cached != "" {
			var user domain.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				w.Header().Set("X-Cache", "HIT")
				respond(w, http.StatusOK, map[string]interface{}{"user": user, "token": identity.Token})
				return
			}
		}
	}

	user, err := h.Users.GetByID(r.Context(), identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	if h.Cache != nil {
		if data, err := json.Marshal(user); err == nil {
			h.Cache.Set(r.Context(), cacheKey, data, time.Hour)
		}
	}

	w.Header().Set("X-Cache", "MISS")
	respond(w, http.StatusOK, map[string]interface{}{"user": user, "token": identity.Token})
}
