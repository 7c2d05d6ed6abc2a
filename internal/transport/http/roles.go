package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/medagenda/backend/internal/domain"
)

// RoleStore is the role/permission admin surface; *postgres.RoleRepo
// satisfies it.
type RoleStore interface {
	Create(ctx context.Context, role *domain.Role) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	Deactivate(ctx context.Context, id int64) error
	CreatePermission(ctx context.Context, p *domain.Permission) (int64, error)
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
	GetUserRoles(ctx context.Context, userID int64) ([]domain.Role, error)
	GrantPermission(ctx context.Context, roleID, permissionID int64) error
	RevokePermission(ctx context.Context, roleID, permissionID int64) error
	GetRolePermissions(ctx context.Context, roleID int64) ([]domain.Permission, error)
}

type RoleHandler struct {
	Roles RoleStore
}

func NewRoleHandler(roles RoleStore) *RoleHandler {
	return &RoleHandler{Roles: roles}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Roles.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, roles)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Role
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.Roles.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	req.ID = id
	req.Active = true
	respond(w, http.StatusCreated, req)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	role, err := h.Roles.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	permissions, err := h.Roles.GetRolePermissions(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"role":        role,
		"permissions": permissions,
	})
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req domain.Role
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.ID = id

	if err := h.Roles.Update(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, req)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Roles.Deactivate(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "role deactivated")
}

func (h *RoleHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.Roles.ListPermissions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, permissions)
}

func (h *RoleHandler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req domain.Permission
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.Roles.CreatePermission(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	req.ID = id
	respond(w, http.StatusCreated, req)
}

func (h *RoleHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	permID, err := urlID(r, "permissionID")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid permission id")
		return
	}
	if err := h.Roles.GrantPermission(r.Context(), roleID, permID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "permission granted")
}

func (h *RoleHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	permID, err := urlID(r, "permissionID")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid permission id")
		return
	}
	if err := h.Roles.RevokePermission(r.Context(), roleID, permID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "permission revoked")
}

func (h *RoleHandler) UserRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	roles, err := h.Roles.GetUserRoles(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, roles)
}

func (h *RoleHandler) AssignToUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	roleID, err := urlID(r, "roleID")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.Roles.AssignRole(r.Context(), userID, roleID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "role assigned")
}

func (h *RoleHandler) RevokeFromUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	roleID, err := urlID(r, "roleID")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid role id")
		return
	}
	if err := h.Roles.RevokeRole(r.Context(), userID, roleID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "role revoked")
}
