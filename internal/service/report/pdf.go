package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/medagenda/backend/internal/domain"
)

// Generator renders appointment reports as PDF.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// AppointmentSchedule renders a doctor's appointments in [from, to) as a
// one-table PDF.
func (g *Generator) AppointmentSchedule(doctor *domain.Doctor, from, to time.Time, appointments []domain.Appointment) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Appointment Schedule", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Appointment Schedule")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Doctor: %s (%s)", doctor.Name, doctor.SpecialtyName))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(35, 7, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 7, "Patient", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, "Reason", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, a := range appointments {
		pdf.CellFormat(35, 7, a.ScheduledAt.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, a.PatientName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, a.Reason, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, a.Status, "1", 1, "L", false, 0, "")
	}

	if len(appointments) == 0 {
		pdf.CellFormat(180, 7, "No appointments in this period", "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", time.Now().Format(time.RFC1123)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
