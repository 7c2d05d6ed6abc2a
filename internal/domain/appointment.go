package domain

import "time"

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusAttended  = "attended"
	StatusCancelled = "cancelled"
)

func ValidStatus(s string) bool {
	return s == StatusScheduled || s == StatusAttended || s == StatusCancelled
}

type Appointment struct {
	ID            int64      `json:"id"`
	Reference     string     `json:"reference"`
	PatientID     int64      `json:"patient_id"`
	PatientName   string     `json:"patient,omitempty"`
	DoctorID      int64      `json:"doctor_id"`
	DoctorName    string     `json:"doctor,omitempty"`
	InstitutionID int64      `json:"institution_id"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	Reason        string     `json:"reason,omitempty"`
	Status        string     `json:"status"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     int64      `json:"created_by,omitempty"`
	ModifiedAt    *time.Time `json:"modified_at,omitempty"`
	ModifiedBy    int64      `json:"modified_by,omitempty"`
}

// AppointmentFilter narrows appointment listings. Zero values mean "no
// constraint".
type AppointmentFilter struct {
	DoctorID  int64
	PatientID int64
	From      time.Time
	To        time.Time
	Status    string
}
