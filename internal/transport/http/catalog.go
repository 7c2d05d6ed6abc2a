package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/internal/transport/http/middleware"
)

type SpecialtyStore interface {
	Create(ctx context.Context, s *domain.Specialty) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Specialty, error)
	List(ctx context.Context) ([]domain.Specialty, error)
	Update(ctx context.Context, s *domain.Specialty) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type InstitutionStore interface {
	Create(ctx context.Context, i *domain.Institution) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Institution, error)
	List(ctx context.Context) ([]domain.Institution, error)
	Update(ctx context.Context, i *domain.Institution) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

type SpecialtyHandler struct {
	Specialties SpecialtyStore
}

func NewSpecialtyHandler(s SpecialtyStore) *SpecialtyHandler {
	return &SpecialtyHandler{Specialties: s}
}

func (h *SpecialtyHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Specialties.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, out)
}

func (h *SpecialtyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	s, err := h.Specialties.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *SpecialtyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Specialty
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.Specialties.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	s, err := h.Specialties.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, s)
}

func (h *SpecialtyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req domain.Specialty
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.ID = id

	if err := h.Specialties.Update(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	s, err := h.Specialties.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *SpecialtyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Specialties.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "specialty deactivated")
}

type InstitutionHandler struct {
	Institutions InstitutionStore
}

func NewInstitutionHandler(i InstitutionStore) *InstitutionHandler {
	return &InstitutionHandler{Institutions: i}
}

func (h *InstitutionHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Institutions.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, out)
}

func (h *InstitutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	inst, err := h.Institutions.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, inst)
}

func (h *InstitutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Institution
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.Institutions.Create(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}
	inst, err := h.Institutions.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, inst)
}

func (h *InstitutionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req domain.Institution
	if err := decode(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid input")
		return
	}
	req.ID = id

	if err := h.Institutions.Update(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	inst, err := h.Institutions.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, inst)
}

func (h *InstitutionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Institutions.SoftDelete(r.Context(), id, identity.ID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "institution deactivated")
}
