package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/transport/http/middleware"
)

type AppointmentStore interface {
	Create(ctx context.Context, a *domain.Appointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	List(ctx context.Context, f domain.AppointmentFilter) ([]domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) error
	UpdateStatus(ctx context.Context, id int64, status string, modifiedBy int64) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type AppointmentHandler struct {
	Appointments AppointmentStore
}

func NewAppointmentHandler(a AppointmentStore) *AppointmentHandler {
	return &AppointmentHandler{Appointments: a}
}

// parseFilter reads list filters from the query string. Dates are RFC 3339
// or plain YYYY-MM-DD.
func parseFilter(r *http.Request) (domain.AppointmentFilter, error) {
	var f domain.AppointmentFilter

	q := r.URL.Query()
	if v := q.Get("doctor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, err
		}
		f.DoctorID = id
	}
	if v := q.Get("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, err
		}
		f.PatientID = id
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	f.Status = q.Get("status")
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid filter")
		return
	}
	out, err := h.Appointments.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, out)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.Appointments.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	var req domain.Appointment
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	if req.PatientID == 0 || req.DoctorID == 0 || req.InstitutionID == 0 || req.ScheduledAt.IsZero() {
		respondMessage(w, http.StatusBadRequest, "patient_id, doctor_id, institution_id and scheduled_at are required")
		return
	}

	req.Reference = uuid.NewString()
	req.Status = domain.StatusScheduled
	req.CreatedBy = identity.ID

	id, err := h.Appointments.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	a, err := h.Appointments.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, a)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req domain.Appointment
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.ID = id
	req.ModifiedBy = identity.ID

	if err := h.Appointments.Update(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	a, err := h.Appointments.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil || !domain.ValidStatus(req.Status) {
		respondMessage(w, http.StatusBadRequest, "status must be scheduled, attended or cancelled")
		return
	}

	if err := h.Appointments.UpdateStatus(r.Context(), id, req.Status, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "status updated")
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Appointments.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "appointment cancelled")
}
