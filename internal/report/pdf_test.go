package report

import (
	"testing"
	"time"

	"github.com/alkime/intake/internal/clinical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() clinical.Record {
	var rec clinical.Record
	rec.Patient.FirstName = "Mario"
	rec.Patient.LastName = "Rossi"
	rec.Patient.Age = "54"
	rec.Vitals.BloodPressure = "140/90 mmHg"
	rec.Assessment.Symptoms = "chest pain"
	rec.Assessment.TriageCode = clinical.TriageYellow

	return rec
}

func TestRenderer_Render(t *testing.T) {
	renderer := NewRenderer()

	pdf, err := renderer.Render(testRecord(), Meta{
		TranscriptID: "t-123",
		EncounterID:  "e-456",
		Transcript:   "Patient presents with chest pain since this morning.",
		GeneratedAt:  time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestRenderer_Render_TranscriptSection(t *testing.T) {
	renderer := NewRenderer()

	without, err := renderer.Render(testRecord(), Meta{GeneratedAt: time.Now()})
	require.NoError(t, err)
	with, err := renderer.Render(testRecord(), Meta{
		Transcript:  "Patient presents with chest pain since this morning.",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)

	assert.Greater(t, len(with), len(without))
}

func TestRenderer_Render_EmptyRecord(t *testing.T) {
	renderer := NewRenderer()

	pdf, err := renderer.Render(clinical.Record{}, Meta{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestRenderer_Render_BlankTriageOmitsBanner(t *testing.T) {
	renderer := NewRenderer()

	rec := testRecord()
	rec.Assessment.TriageCode = ""

	withBanner, err := renderer.Render(testRecord(), Meta{GeneratedAt: time.Now()})
	require.NoError(t, err)
	without, err := renderer.Render(rec, Meta{GeneratedAt: time.Now()})
	require.NoError(t, err)

	assert.Less(t, len(without), len(withBanner))
}
