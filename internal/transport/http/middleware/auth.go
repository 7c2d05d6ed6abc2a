package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/pkg/httputil"
)

// Guard is the request authenticator. Per request it runs a linear decision
// sequence: allowlist bypass, already-verified identity, token extraction
// (bearer header, or query parameter on the streaming endpoint), signature
// and claims validation, registry cross-check. Any failure rejects the
// request before the route handler runs.
type Guard struct {
	auth          *session.AuthService
	allowExact    map[string]struct{}
	allowPrefixes []string
	streamPath    string
}

func NewGuard(auth *session.AuthService) *Guard {
	return &Guard{
		auth: auth,
		allowExact: map[string]struct{}{
			"/":                         {},
			"/healthz":                  {},
			"/api/auth/login":           {},
			"/api/auth/register":        {},
			"/api/auth/google/login":    {},
			"/api/auth/google/callback": {},
		},
		allowPrefixes: []string{"/assets/", "/uploads/"},
		streamPath:    "/ws",
	}
}

func (g *Guard) bypass(path string) bool {
	if _, ok := g.allowExact[path]; ok {
		return true
	}
	for _, prefix := range g.allowPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequireAuth wraps next and rejects unauthenticated requests.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Allowlisted paths skip authentication entirely.
		if g.bypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// 2. An upstream layer (cookie auth) may already have verified the
		// caller.
		if IdentityFrom(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		// 3. Bearer header first; the streaming handshake cannot set custom
		// headers, so /ws may deliver the token as a query parameter.
		token := httputil.BearerToken(r)
		if token == "" && r.URL.Path == g.streamPath {
			token = r.URL.Query().Get("access_token")
		}

		// 4. No token anywhere.
		if token == "" {
			writeAuthError(w, domain.ErrTokenMissing)
			return
		}

		// 5-7. Signature/claims validation, identity extraction, registry
		// cross-check.
		identity, err := g.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		// 8. Verified identity flows to the handler.
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// CookieAuth validates the auth cookie when present and attaches the
// identity for the guard's step 2. An invalid cookie is cleared and the
// request continues unauthenticated; rejection stays the guard's job.
func (g *Guard) CookieAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := httputil.GetTokenFromCookie(r)
		if err != nil || token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := g.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrRegistryUnavailable) {
				writeAuthError(w, err)
				return
			}
			httputil.ClearAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	message := domain.ErrTokenInvalid.Error()

	switch {
	case errors.Is(err, domain.ErrRegistryUnavailable):
		status = http.StatusServiceUnavailable
		message = domain.ErrRegistryUnavailable.Error()
	case errors.Is(err, domain.ErrTokenMissing):
		message = domain.ErrTokenMissing.Error()
	case errors.Is(err, domain.ErrIdentityUnparseable):
		message = domain.ErrIdentityUnparseable.Error()
	case errors.Is(err, domain.ErrSessionRevoked):
		message = domain.ErrSessionRevoked.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"message":%q}`, message)
}
