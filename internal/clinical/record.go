// Package clinical defines the structured clinical record produced by
// extraction and edited by the operator before report generation.
package clinical

import (
	"fmt"
	"strings"
)

// PatientData holds the identity fields extracted from the visit text.
type PatientData struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	BirthDate  string `json:"birth_date"`
	BirthPlace string `json:"birth_place"`
	Phone      string `json:"phone"`
	AccessMode string `json:"access_mode"`
}

// VitalSigns holds vital parameters with their units kept verbatim,
// e.g. "120/80 mmHg" or "98%".
type VitalSigns struct {
	HeartRate     string `json:"heart_rate"`
	BloodPressure string `json:"blood_pressure"`
	Temperature   string `json:"temperature"`
	Oxygenation   string `json:"oxygenation"`
	BloodGlucose  string `json:"blood_glucose"`
}

// Assessment holds the clinical evaluation fields.
type Assessment struct {
	History          string     `json:"history"`
	MedicationsTaken string     `json:"medications_taken"`
	Symptoms         string     `json:"symptoms"`
	MedicalActions   string     `json:"medical_actions"`
	Plan             string     `json:"plan"`
	TriageCode       TriageCode `json:"triage_code"`
}

// Record is the editable clinical-data record for one intake session.
// Every field is a string (or string-backed enum) so the operator can
// revise each one independently before the report is generated.
type Record struct {
	Patient    PatientData `json:"patient_data"`
	Vitals     VitalSigns  `json:"vital_signs"`
	Assessment Assessment  `json:"clinical_assessment"`
	Notes      string      `json:"notes"`
}

// Field names accepted by Set/Get. Kept aligned with the extraction schema
// so gateway payloads and edits use the same vocabulary.
const (
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldAge              = "age"
	FieldGender           = "gender"
	FieldBirthDate        = "birth_date"
	FieldBirthPlace       = "birth_place"
	FieldPhone            = "phone"
	FieldAccessMode       = "access_mode"
	FieldHeartRate        = "heart_rate"
	FieldBloodPressure    = "blood_pressure"
	FieldTemperature      = "temperature"
	FieldOxygenation      = "oxygenation"
	FieldBloodGlucose     = "blood_glucose"
	FieldHistory          = "history"
	FieldMedicationsTaken = "medications_taken"
	FieldSymptoms         = "symptoms"
	FieldMedicalActions   = "medical_actions"
	FieldPlan             = "plan"
	FieldTriageCode       = "triage_code"
	FieldNotes            = "notes"
)

// FieldNames returns every editable field in display order.
func FieldNames() []string {
	return []string{
		FieldFirstName, FieldLastName, FieldAge, FieldGender,
		FieldBirthDate, FieldBirthPlace, FieldPhone, FieldAccessMode,
		FieldHeartRate, FieldBloodPressure, FieldTemperature,
		FieldOxygenation, FieldBloodGlucose,
		FieldHistory, FieldMedicationsTaken, FieldSymptoms,
		FieldMedicalActions, FieldPlan, FieldTriageCode, FieldNotes,
	}
}

// fieldRef returns a pointer to the backing string for a named field.
// Triage is handled separately by Set/Get because it is an enum.
func (r *Record) fieldRef(name string) *string {
	switch name {
	case FieldFirstName:
		return &r.Patient.FirstName
	case FieldLastName:
		return &r.Patient.LastName
	case FieldAge:
		return &r.Patient.Age
	case FieldGender:
		return &r.Patient.Gender
	case FieldBirthDate:
		return &r.Patient.BirthDate
	case FieldBirthPlace:
		return &r.Patient.BirthPlace
	case FieldPhone:
		return &r.Patient.Phone
	case FieldAccessMode:
		return &r.Patient.AccessMode
	case FieldHeartRate:
		return &r.Vitals.HeartRate
	case FieldBloodPressure:
		return &r.Vitals.BloodPressure
	case FieldTemperature:
		return &r.Vitals.Temperature
	case FieldOxygenation:
		return &r.Vitals.Oxygenation
	case FieldBloodGlucose:
		return &r.Vitals.BloodGlucose
	case FieldHistory:
		return &r.Assessment.History
	case FieldMedicationsTaken:
		return &r.Assessment.MedicationsTaken
	case FieldSymptoms:
		return &r.Assessment.Symptoms
	case FieldMedicalActions:
		return &r.Assessment.MedicalActions
	case FieldPlan:
		return &r.Assessment.Plan
	case FieldNotes:
		return &r.Notes
	default:
		return nil
	}
}

// Set updates a single named field. Triage values are normalized through
// ParseTriageCode and rejected when unrecognized; every other field takes
// the value verbatim.
func (r *Record) Set(name, value string) error {
	if name == FieldTriageCode {
		code, err := ParseTriageCode(value)
		if err != nil {
			return err
		}
		r.Assessment.TriageCode = code

		return nil
	}

	ref := r.fieldRef(name)
	if ref == nil {
		return fmt.Errorf("unknown clinical field %q", name)
	}
	*ref = value

	return nil
}

// Get returns the current value of a named field.
func (r *Record) Get(name string) (string, error) {
	if name == FieldTriageCode {
		return r.Assessment.TriageCode.String(), nil
	}

	ref := r.fieldRef(name)
	if ref == nil {
		return "", fmt.Errorf("unknown clinical field %q", name)
	}

	return *ref, nil
}

// MergeExtracted folds a freshly extracted record into the session, applying
// the inheritance rule for triage: a blank extracted code is overwritten with
// the code chosen at setup, never the reverse.
func MergeExtracted(extracted Record, setupTriage TriageCode) Record {
	merged := extracted
	if merged.Assessment.TriageCode.IsBlank() {
		merged.Assessment.TriageCode = setupTriage
	}

	return merged
}

// IsEmpty reports whether no field carries a value.
func (r *Record) IsEmpty() bool {
	for _, name := range FieldNames() {
		value, err := r.Get(name)
		if err == nil && strings.TrimSpace(value) != "" {
			return false
		}
	}

	return true
}
