package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type RoleRepo struct {
	DB *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db}
}

func (r *RoleRepo) Create(ctx context.Context, role *domain.Role) (int64, error) {
	query := `INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id;`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, role.Name, role.Description).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create role: %w", err)
	}
	return id, nil
}

func (r *RoleRepo) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	query := `SELECT id, name, description, active FROM roles WHERE id = $1;`
	var role domain.Role
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&role.ID, &role.Name, &role.Description, &role.Active)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]domain.Role, error) {
	query := `SELECT id, name, description, active FROM roles WHERE active = TRUE ORDER BY name;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var out []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Active); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *RoleRepo) Update(ctx context.Context, role *domain.Role) error {
	query := `UPDATE roles SET name = $2, description = $3 WHERE id = $1;`
	res, err := r.DB.ExecContext(ctx, query, role.ID, role.Name, role.Description)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RoleRepo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE roles SET active = FALSE WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- Permissions ---

func (r *RoleRepo) CreatePermission(ctx context.Context, p *domain.Permission) (int64, error) {
	query := `INSERT INTO permissions (name, description) VALUES ($1, $2) RETURNING id;`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, p.Name, p.Description).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create permission: %w", err)
	}
	return id, nil
}

func (r *RoleRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, description FROM permissions ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Many-to-many links ---

func (r *RoleRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	query := `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`
	if _, err := r.DB.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (r *RoleRepo) RevokeRole(ctx context.Context, userID, roleID int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2;`, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RoleRepo) GetUserRoles(ctx context.Context, userID int64) ([]domain.Role, error) {
	query := `
	SELECT r.id, r.name, r.description, r.active
	FROM roles r
	JOIN user_roles ur ON ur.role_id = r.id
	WHERE ur.user_id = $1 AND r.active = TRUE
	ORDER BY r.name;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer rows.Close()

	var out []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Active); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *RoleRepo) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	query := `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`
	if _, err := r.DB.ExecContext(ctx, query, roleID, permissionID); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

func (r *RoleRepo) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2;`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RoleRepo) GetRolePermissions(ctx context.Context, roleID int64) ([]domain.Permission, error) {
	query := `
	SELECT p.id, p.name, p.description
	FROM permissions p
	JOIN role_permissions rp ON rp.permission_id = p.id
	WHERE rp.role_id = $1
	ORDER BY p.name;
	`
	rows, err := r.DB.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
