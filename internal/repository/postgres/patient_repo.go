package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type PatientRepo struct {
	DB *sql.DB
}

func NewPatientRepo(db *sql.DB) *PatientRepo {
	return &PatientRepo{DB: db}
}

const patientSelectFields = `id, name, document, email, phone, birth_date, active, created_at, modified_at`

func scanPatient(row interface{ Scan(dest ...any) error }) (*domain.Patient, error) {
	var p domain.Patient
	var birthDate, modifiedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.Document, &p.Email, &p.Phone, &birthDate, &p.Active, &p.CreatedAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		p.BirthDate = &birthDate.Time
	}
	if modifiedAt.Valid {
		p.ModifiedAt = &modifiedAt.Time
	}
	return &p, nil
}

func (r *PatientRepo) Create(ctx context.Context, p *domain.Patient) (int64, error) {
	query := `
	INSERT INTO patients (name, document, email, phone, birth_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, p.Name, p.Document, p.Email, p.Phone, p.BirthDate).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create patient: %w", err)
	}
	return id, nil
}

func (r *PatientRepo) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	query := `SELECT ` + patientSelectFields + ` FROM patients WHERE id = $1 AND deleted_at IS NULL;`
	return scanPatient(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PatientRepo) List(ctx context.Context) ([]domain.Patient, error) {
	query := `SELECT ` + patientSelectFields + ` FROM patients WHERE active = TRUE AND deleted_at IS NULL ORDER BY name;`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var out []domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PatientRepo) Update(ctx context.Context, p *domain.Patient) error {
	query := `
	UPDATE patients SET name = $2, document = $3, email = $4, phone = $5, birth_date = $6, modified_at = NOW()
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, p.ID, p.Name, p.Document, p.Email, p.Phone, p.BirthDate)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PatientRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	query := `
	UPDATE patients SET active = FALSE, deleted_at = NOW(), deleted_by = $2
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
