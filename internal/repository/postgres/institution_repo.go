package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type InstitutionRepo struct {
	DB *sql.DB
}

func NewInstitutionRepo(db *sql.DB) *InstitutionRepo {
	return &InstitutionRepo{DB: db}
}

const institutionSelectFields = `id, name, address, phone, active, created_at, modified_at`

func scanInstitution(row interface{ Scan(dest ...any) error }) (*domain.Institution, error) {
	var i domain.Institution
	var modifiedAt sql.NullTime
	err := row.Scan(&i.ID, &i.Name, &i.Address, &i.Phone, &i.Active, &i.CreatedAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		i.ModifiedAt = &modifiedAt.Time
	}
	return &i, nil
}

func (r *InstitutionRepo) Create(ctx context.Context, i *domain.Institution) (int64, error) {
	query := `INSERT INTO institutions (name, address, phone) VALUES ($1, $2, $3) RETURNING id;`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, i.Name, i.Address, i.Phone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create institution: %w", err)
	}
	return id, nil
}

func (r *InstitutionRepo) GetByID(ctx context.Context, id int64) (*domain.Institution, error) {
	query := `SELECT ` + institutionSelectFields + ` FROM institutions WHERE id = $1 AND deleted_at IS NULL;`
	return scanInstitution(r.DB.QueryRowContext(ctx, query, id))
}

func (r *InstitutionRepo) List(ctx context.Context) ([]domain.Institution, error) {
	query := `SELECT ` + institutionSelectFields + ` FROM institutions WHERE active = TRUE AND deleted_at IS NULL ORDER BY name;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	var out []domain.Institution
	for rows.Next() {
		i, err := scanInstitution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

func (r *InstitutionRepo) Update(ctx context.Context, i *domain.Institution) error {
	query := `
	UPDATE institutions SET name = $2, address = $3, phone = $4, modified_at = NOW()
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, i.ID, i.Name, i.Address, i.Phone)
	if err != nil {
		return fmt.Errorf("failed to update institution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InstitutionRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	query := `
	UPDATE institutions SET active = FALSE, deleted_at = NOW(), deleted_by = $2
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete institution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
