package extract

import (
	"regexp"
	"strings"

	"github.com/alkime/intake/internal/clinical"
)

var (
	bloodPressureRe = regexp.MustCompile(`\b(\d{2,3}\s*/\s*\d{2,3})\b`)
	heartRateRe     = regexp.MustCompile(`(?i)\b(\d{2,3})\s*(?:bpm|beats|battiti)\b`)
	temperatureRe   = regexp.MustCompile(`(?i)\b(3[5-9][.,]\d|4[0-2][.,]\d)\s*°?\s*C?\b`)
	oxygenationRe   = regexp.MustCompile(`(?i)\b(?:sat(?:uration)?|spo2|oxygen\w*|ossigen\w*)\D{0,12}(\d{2,3})\s*%`)
	glucoseRe       = regexp.MustCompile(`(?i)\b(?:glucose|glicemia|glycemia)\D{0,12}(\d{2,3})\b`)
)

// symptomKeywords are scanned verbatim so the degraded record still
// gives the operator a starting point for the symptoms field.
var symptomKeywords = []string{
	"chest pain", "dolore toracico",
	"shortness of breath", "dispnea",
	"headache", "cefalea",
	"abdominal pain", "dolore addominale",
	"fever", "febbre",
	"nausea", "vomiting", "vomito",
	"dizziness", "vertigini",
	"trauma", "fall", "caduta",
	"bleeding", "emorragia",
	"palpitations", "palpitazioni",
}

// fallbackExtract builds a degraded clinical record by keyword and
// pattern matching over the transcript. Everything it cannot recognize
// lands in history so no transcript content is silently lost.
func fallbackExtract(transcript, reason string) *Result {
	lower := strings.ToLower(transcript)

	var rec clinical.Record
	rec.Assessment.History = strings.TrimSpace(transcript)

	if m := bloodPressureRe.FindStringSubmatch(transcript); m != nil {
		rec.Vitals.BloodPressure = strings.ReplaceAll(m[1], " ", "") + " mmHg"
	}
	if m := heartRateRe.FindStringSubmatch(transcript); m != nil {
		rec.Vitals.HeartRate = m[1] + " bpm"
	}
	if m := temperatureRe.FindStringSubmatch(transcript); m != nil {
		rec.Vitals.Temperature = strings.ReplaceAll(m[1], ",", ".") + " C"
	}
	if m := oxygenationRe.FindStringSubmatch(transcript); m != nil {
		rec.Vitals.Oxygenation = m[1] + "%"
	}
	if m := glucoseRe.FindStringSubmatch(transcript); m != nil {
		rec.Vitals.BloodGlucose = m[1] + " mg/dL"
	}

	var found []string
	for _, kw := range symptomKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	rec.Assessment.Symptoms = strings.Join(found, ", ")

	for _, code := range clinical.AllTriageCodes() {
		if strings.Contains(lower, string(code)) {
			rec.Assessment.TriageCode = code
			break
		}
	}

	result := &Result{
		Record:   rec,
		Fallback: true,
		Warnings: []string{reason, "all fields require manual review"},
	}
	result.ValidationErrors = validateRecord(&rec)

	return result
}
