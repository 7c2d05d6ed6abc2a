package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/transport/http/middleware"
)

type PatientStore interface {
	Create(ctx context.Context, p *domain.Patient) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Patient, error)
	List(ctx context.Context) ([]domain.Patient, error)
	Update(ctx context.Context, p *domain.Patient) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type PatientHandler struct {
	Patients PatientStore
}

func NewPatientHandler(p PatientStore) *PatientHandler {
	return &PatientHandler{Patients: p}
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Patients.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, out)
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.Patients.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Patient
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Document = strings.TrimSpace(req.Document)
	if req.Name == "" || req.Document == "" {
		respondMessage(w, http.StatusBadRequest, "name and document are required")
		return
	}

	id, err := h.Patients.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	p, err := h.Patients.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req domain.Patient
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.ID = id

	if err := h.Patients.Update(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	p, err := h.Patients.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Patients.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "patient deactivated")
}
