package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/medagenda/backend/internal/service/report"
)

type ReportHandler struct {
	Appointments AppointmentStore
	Doctors      DoctorStore
	PDF          *report.Generator
}

func NewReportHandler(appointments AppointmentStore, doctors DoctorStore, pdf *report.Generator) *ReportHandler {
	return &ReportHandler{Appointments: appointments, Doctors: doctors, PDF: pdf}
}

// AppointmentSchedule streams a PDF of a doctor's appointments for a date
// range: GET /api/reports/appointments?doctor_id=&from=&to=
func (h *ReportHandler) AppointmentSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	doctorID, err := strconv.ParseInt(q.Get("doctor_id"), 10, 64)
	if err != nil || doctorID <= 0 {
		respondMessage(w, http.StatusBadRequest, "doctor_id is required")
		return
	}

	from, err := parseDate(q.Get("from"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		to = from.AddDate(0, 0, 7)
	}

	doctor, err := h.Doctors.GetByID(r.Context(), doctorID)
	if err != nil {
		respondError(w, err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid filter")
		return
	}
	filter.DoctorID = doctorID
	filter.From = from
	filter.To = to

	appointments, err := h.Appointments.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	pdfBytes, err := h.PDF.AppointmentSchedule(doctor, from, to, appointments)
	if err != nil {
		respondError(w, err)
		return
	}

	filename := fmt.Sprintf("schedule-%d-%s.pdf", doctorID, from.Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
