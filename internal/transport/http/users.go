package http

import (
	"net/http"
	"strings"

	"github.com/medagenda/backend/internal/service/session"
	"github.com/medagenda/backend/internal/transport/http/middleware"
	"github.com/medagenda/backend/pkg/auth"
)

type UserHandler struct {
	Users       UserStore
	Sessions    *session.AuthService
	ConnManager Disconnector // optional, may be nil
}

func NewUserHandler(users UserStore, sessions *session.AuthService, cm Disconnector) *UserHandler {
	return &UserHandler{Users: users, Sessions: sessions, ConnManager: cm}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// UpdateProfile lets the caller change their own name and email.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) > 100 {
		respondMessage(w, http.StatusBadRequest, "name must be at most 100 characters")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondMessage(w, http.StatusBadRequest, "invalid email format")
		return
	}

	if err := h.Users.UpdateProfile(r.Context(), identity.ID, req.Name, req.Email, identity.ID); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.Users.GetByID(r.Context(), identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// ChangePassword verifies the current password before storing a new hash.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}

	user, err := h.Users.GetByID(r.Context(), identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		respondMessage(w, http.StatusUnauthorized, "current password incorrect")
		return
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Users.UpdatePassword(r.Context(), identity.ID, hashed, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "password updated")
}

// Delete deactivates an account, ends its session and drops any live
// connection.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Users.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.Sessions.Logout(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	if h.ConnManager != nil {
		h.ConnManager.DisconnectUser(id, "Account deactivated")
	}
	respondMessage(w, http.StatusOK, "user deactivated")
}
