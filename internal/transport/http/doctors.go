package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/transport/http/middleware"
)

type DoctorStore interface {
	Create(ctx context.Context, d *domain.Doctor) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	List(ctx context.Context) ([]domain.Doctor, error)
	Update(ctx context.Context, d *domain.Doctor) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type DoctorHandler struct {
	Doctors DoctorStore
}

func NewDoctorHandler(d DoctorStore) *DoctorHandler {
	return &DoctorHandler{Doctors: d}
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Doctors.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, out)
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := h.Doctors.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Doctor
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.SpecialtyID == 0 || req.InstitutionID == 0 {
		respondMessage(w, http.StatusBadRequest, "name, specialty_id and institution_id are required")
		return
	}

	id, err := h.Doctors.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	d, err := h.Doctors.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, d)
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req domain.Doctor
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.ID = id

	if err := h.Doctors.Update(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	d, err := h.Doctors.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Doctors.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "doctor deactivated")
}
