package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medagenda/backend/internal/domain"
)

type AppointmentRepo struct {
	DB *sql.DB
}

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo {
	return &AppointmentRepo{DB: db}
}

const appointmentSelectFields = `
	a.id, a.reference, a.patient_id, p.name, a.doctor_id, d.name, a.institution_id,
	a.scheduled_at, a.reason, a.status, a.active, a.created_at, a.created_by, a.modified_at, a.modified_by`

const appointmentJoins = `
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id`

func scanAppointment(row interface{ Scan(dest ...any) error }) (*domain.Appointment, error) {
	var a domain.Appointment
	var modifiedAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.Reference,
		&a.PatientID, &a.PatientName,
		&a.DoctorID, &a.DoctorName,
		&a.InstitutionID, &a.ScheduledAt, &a.Reason, &a.Status,
		&a.Active, &a.CreatedAt, &a.CreatedBy, &modifiedAt, &a.ModifiedBy,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		a.ModifiedAt = &modifiedAt.Time
	}
	return &a, nil
}

func (r *AppointmentRepo) Create(ctx context.Context, a *domain.Appointment) (int64, error) {
	query := `
	INSERT INTO appointments (reference, patient_id, doctor_id, institution_id, scheduled_at, reason, status, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id;
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		a.Reference, a.PatientID, a.DoctorID, a.InstitutionID, a.ScheduledAt, a.Reason, a.Status, a.CreatedBy,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create appointment: %w", err)
	}
	return id, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentSelectFields + appointmentJoins + ` WHERE a.id = $1 AND a.deleted_at IS NULL;`
	return scanAppointment(r.DB.QueryRowContext(ctx, query, id))
}

// List returns active appointments matching the filter, soonest first.
func (r *AppointmentRepo) List(ctx context.Context, f domain.AppointmentFilter) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentSelectFields + appointmentJoins + `
	WHERE a.active = TRUE AND a.deleted_at IS NULL`
	var args []interface{}

	add := func(clause string, val interface{}) {
		args = append(args, val)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if f.DoctorID != 0 {
		add("a.doctor_id = $%d", f.DoctorID)
	}
	if f.PatientID != 0 {
		add("a.patient_id = $%d", f.PatientID)
	}
	if !f.From.IsZero() {
		add("a.scheduled_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("a.scheduled_at < $%d", f.To)
	}
	if f.Status != "" {
		add("a.status = $%d", f.Status)
	}
	query += " ORDER BY a.scheduled_at;"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var out []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AppointmentRepo) Update(ctx context.Context, a *domain.Appointment) error {
	query := `
	UPDATE appointments
	SET patient_id = $2, doctor_id = $3, institution_id = $4, scheduled_at = $5, reason = $6,
	    modified_at = NOW(), modified_by = $7
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query,
		a.ID, a.PatientID, a.DoctorID, a.InstitutionID, a.ScheduledAt, a.Reason, a.ModifiedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id int64, status string, modifiedBy int64) error {
	query := `
	UPDATE appointments SET status = $2, modified_at = NOW(), modified_by = $3
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, status, modifiedBy)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	query := `
	UPDATE appointments SET active = FALSE, deleted_at = NOW(), deleted_by = $2
	WHERE id = $1 AND deleted_at IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query, id, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
