package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userSelectFields = `id, username, COALESCE(name, '') AS name, email, password_hash, active, created_at, created_by, modified_at, modified_by`

// scanUser is a helper that scans a row into a User struct
func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var user domain.User
	var modifiedAt sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Active,
		&user.CreatedAt,
		&user.CreatedBy,
		&modifiedAt,
		&user.ModifiedBy,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		user.ModifiedAt = &modifiedAt.Time
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	query := `
	INSERT INTO users (username, name, email, password_hash, created_by)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, u.Username, u.Name, u.Email, u.PasswordHash, u.CreatedBy).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE username = $1 AND deleted_at IS NULL;`
	return scanUser(r.DB.QueryRowContext(ctx, query, username))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE email = $1 AND deleted_at IS NULL;`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE id = $1 AND deleted_at IS NULL;`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE active = TRUE AND deleted_at IS NULL ORDER BY username;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, name, email string, modifiedBy int64) error {
	query := `
	UPDATE users SET name = $2, email = $3, modified_at = NOW(), modified_by = $4
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, name, email, modifiedBy)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, modifiedBy int64) error {
	query := `
	UPDATE users SET password_hash = $2, modified_at = NOW(), modified_by = $3
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, passwordHash, modifiedBy)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete deactivates the account and stamps the audit columns. The row
// stays for historical references.
func (r *UserRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	query := `
	UPDATE users SET active = FALSE, deleted_at = NOW(), deleted_by = $2
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
