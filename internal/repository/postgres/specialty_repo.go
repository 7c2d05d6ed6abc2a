package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type SpecialtyRepo struct {
	DB *sql.DB
}

func NewSpecialtyRepo(db *sql.DB) *SpecialtyRepo {
	return &SpecialtyRepo{DB: db}
}

const specialtySelectFields = `id, name, description, active, created_at, modified_at`

func scanSpecialty(row interface{ Scan(dest ...any) error }) (*domain.Specialty, error) {
	var s domain.Specialty
	var modifiedAt sql.NullTime
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Active, &s.CreatedAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		s.ModifiedAt = &modifiedAt.Time
	}
	return &s, nil
}

func (r *SpecialtyRepo) Create(ctx context.Context, s *domain.Specialty) (int64, error) {
	query := `INSERT INTO specialties (name, description) VALUES ($1, $2) RETURNING id;`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, s.Name, s.Description).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create specialty: %w", err)
	}
	return id, nil
}

func (r *SpecialtyRepo) GetByID(ctx context.Context, id int64) (*domain.Specialty, error) {
	query := `SELECT ` + specialtySelectFields + ` FROM specialties WHERE id = $1 AND deleted_at IS NULL;`
	return scanSpecialty(r.DB.QueryRowContext(ctx, query, id))
}

func (r *SpecialtyRepo) List(ctx context.Context) ([]domain.Specialty, error) {
	query := `SELECT ` + specialtySelectFields + ` FROM specialties WHERE active = TRUE AND deleted_at IS NULL ORDER BY name;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	defer rows.Close()

	var out []domain.Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SpecialtyRepo) Update(ctx context.Context, s *domain.Specialty) error {
	query := `
	UPDATE specialties SET name = $2, description = $3, modified_at = NOW()
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, s.ID, s.Name, s.Description)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update specialty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SpecialtyRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	query := `
	UPDATE specialties SET active = FALSE, deleted_at = NOW(), deleted_by = $2
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete specialty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
