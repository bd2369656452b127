// Package report renders a clinical record into the visit report PDF.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/alkime/intake/internal/clinical"
)

// Meta identifies the visit the report belongs to. Transcript is the
// reviewed transcript text, appended as the final section when present.
type Meta struct {
	TranscriptID string
	EncounterID  string
	Transcript   string
	GeneratedAt  time.Time
}

// Renderer produces visit report PDFs.
type Renderer struct{}

// NewRenderer creates a PDF renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

type fieldRow struct {
	label string
	value string
}

// Render builds the report document: header, patient data, vital signs,
// clinical assessment, notes and the transcript. Empty fields are
// skipped so short visits produce short reports.
func (r *Renderer) Render(rec clinical.Record, meta Meta) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Emergency Visit Report", false)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Emergency Visit Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	subtitle := fmt.Sprintf("Encounter %s  ·  Generated %s",
		meta.EncounterID, meta.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 6, subtitle, "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	r.triageBanner(pdf, rec.Assessment.TriageCode)

	r.section(pdf, "Patient Data", []fieldRow{
		{"First name", rec.Patient.FirstName},
		{"Last name", rec.Patient.LastName},
		{"Age", rec.Patient.Age},
		{"Gender", rec.Patient.Gender},
		{"Birth date", rec.Patient.BirthDate},
		{"Birth place", rec.Patient.BirthPlace},
		{"Phone", rec.Patient.Phone},
		{"Access mode", rec.Patient.AccessMode},
	})

	r.section(pdf, "Vital Signs", []fieldRow{
		{"Heart rate", rec.Vitals.HeartRate},
		{"Blood pressure", rec.Vitals.BloodPressure},
		{"Temperature", rec.Vitals.Temperature},
		{"Oxygenation", rec.Vitals.Oxygenation},
		{"Blood glucose", rec.Vitals.BloodGlucose},
	})

	r.section(pdf, "Clinical Assessment", []fieldRow{
		{"History", rec.Assessment.History},
		{"Medications taken", rec.Assessment.MedicationsTaken},
		{"Symptoms", rec.Assessment.Symptoms},
		{"Medical actions", rec.Assessment.MedicalActions},
		{"Plan", rec.Assessment.Plan},
	})

	if strings.TrimSpace(rec.Notes) != "" {
		r.section(pdf, "Notes", []fieldRow{{"Notes", rec.Notes}})
	}

	if strings.TrimSpace(meta.Transcript) != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Transcript", "B", 1, "L", false, 0, "")
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, meta.Transcript, "", "L", false)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// triageBanner prints the triage code on its color so the code is
// readable at a glance, matching the paper triage tags.
func (r *Renderer) triageBanner(pdf *fpdf.Fpdf, code clinical.TriageCode) {
	if code.IsBlank() {
		return
	}

	red, green, blue := triageColor(code)
	pdf.SetFillColor(red, green, blue)
	if code == clinical.TriageWhite {
		pdf.SetTextColor(0, 0, 0)
		pdf.SetDrawColor(150, 150, 150)
	} else {
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(red, green, blue)
	}

	pdf.SetFont("Helvetica", "B", 11)
	label := "TRIAGE: " + strings.ToUpper(code.String())
	pdf.CellFormat(0, 9, label, "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func triageColor(code clinical.TriageCode) (int, int, int) {
	switch code {
	case clinical.TriageWhite:
		return 255, 255, 255
	case clinical.TriageGreen:
		return 46, 139, 87
	case clinical.TriageYellow:
		return 218, 165, 32
	case clinical.TriageRed:
		return 178, 34, 34
	case clinical.TriageBlack:
		return 30, 30, 30
	default:
		return 120, 120, 120
	}
}

// section prints a titled block of label/value rows, skipping empty
// values.
func (r *Renderer) section(pdf *fpdf.Fpdf, title string, rows []fieldRow) {
	filled := make([]fieldRow, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.value) != "" {
			filled = append(filled, row)
		}
	}
	if len(filled) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)

	for _, row := range filled {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 6, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, row.value, "", "L", false)
	}

	pdf.Ln(4)
}
