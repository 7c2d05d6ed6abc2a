package http

import (
	"log"
	"net/http"
	"time"

	"github.com/medagenda/backend/internal/config"
	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/pkg/httputil"
)

// OAuthHandler implements Google sign-in for existing accounts. A matched
// account gets a regular session token recorded in the registry, superseding
// any prior session exactly like a password login. Unknown emails are
// rejected; registration stays username/password.
type OAuthHandler struct {
	Users       UserStore
	Auth        *session.AuthService
	OAuth       config.OAuthConfig
	FrontendURL string
	CookieTTL   time.Duration
	Secure      bool
}

func NewOAuthHandler(users UserStore, authSvc *session.AuthService, oauthCfg config.OAuthConfig, frontendURL string, cookieTTL time.Duration, secure bool) *OAuthHandler {
	return &OAuthHandler{
		Users:       users,
		Auth:        authSvc,
		OAuth:       oauthCfg,
		FrontendURL: frontendURL,
		CookieTTL:   cookieTTL,
		Secure:      secure,
	}
}

// GoogleLogin redirects the user to Google.
func (h *OAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.OAuth.GoogleLoginConfig.AuthCodeURL("state")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback handles the response from Google.
func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	token, err := h.OAuth.GoogleLoginConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("[OAUTH] Failed to exchange token: %v", err)
		http.Redirect(w, r, h.FrontendURL+"/login?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := config.GetGoogleUserInfo(token.AccessToken)
	if err != nil {
		log.Printf("[OAUTH] Failed to get user info: %v", err)
		http.Redirect(w, r, h.FrontendURL+"/login?error=user_info_failed", http.StatusTemporaryRedirect)
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), userInfo.Email)
	if err != nil || user == nil || !user.Active {
		log.Printf("[OAUTH] No active account for Google email")
		http.Redirect(w, r, h.FrontendURL+"/login?error=unknown_account", http.StatusTemporaryRedirect)
		return
	}

	sessionToken, err := h.Auth.StartSession(r.Context(), user)
	if err != nil {
		log.Printf("[OAUTH] Failed to start session: %v", err)
		http.Redirect(w, r, h.FrontendURL+"/login?error=server_error", http.StatusTemporaryRedirect)
		return
	}

	httputil.SetAuthCookie(w, sessionToken, h.CookieTTL, h.Secure)
	http.Redirect(w, r, h.FrontendURL+"/dashboard", http.StatusTemporaryRedirect)
}
