package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type DoctorRepo struct {
	DB *sql.DB
}

func NewDoctorRepo(db *sql.DB) *DoctorRepo {
	return &DoctorRepo{DB: db}
}

const doctorSelectFields = `
	d.id, d.name, d.email, d.phone, d.specialty_id, s.name, d.institution_id, i.name,
	d.active, d.created_at, d.modified_at`

const doctorJoins = `
	FROM doctors d
	JOIN specialties s ON s.id = d.specialty_id
	JOIN institutions i ON i.id = d.institution_id`

func scanDoctor(row interface{ Scan(dest ...any) error }) (*domain.Doctor, error) {
	var d domain.Doctor
	var modifiedAt sql.NullTime
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone,
		&d.SpecialtyID, &d.SpecialtyName,
		&d.InstitutionID, &d.InstitutionName,
		&d.Active, &d.CreatedAt, &modifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		d.ModifiedAt = &modifiedAt.Time
	}
	return &d, nil
}

func (r *DoctorRepo) Create(ctx context.Context, d *domain.Doctor) (int64, error) {
	query := `
	INSERT INTO doctors (name, email, phone, specialty_id, institution_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, d.Name, d.Email, d.Phone, d.SpecialtyID, d.InstitutionID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create doctor: %w", err)
	}
	return id, nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	query := `SELECT ` + doctorSelectFields + doctorJoins + ` WHERE d.id = $1 AND d.deleted_at IS NULL;`
	return scanDoctor(r.DB.QueryRowContext(ctx, query, id))
}

func (r *DoctorRepo) List(ctx context.Context) ([]domain.Doctor, error) {
	query := `SELECT ` + doctorSelectFields + doctorJoins + `
	WHERE d.active = TRUE AND d.deleted_at IS NULL ORDER BY d.name;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	var out []domain.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DoctorRepo) Update(ctx context.Context, d *domain.Doctor) error {
	query := `
	UPDATE doctors SET name = $2, email = $3, phone = $4, specialty_id = $5, institution_id = $6, modified_at = NOW()
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, d.ID, d.Name, d.Email, d.Phone, d.SpecialtyID, d.InstitutionID)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DoctorRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	query := `
	UPDATE doctors SET active = FALSE, deleted_at = NOW(), deleted_by = $2
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
