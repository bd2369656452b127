package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SetGetRoundTrip(t *testing.T) {
	var rec Record

	require.NoError(t, rec.Set(FieldSymptoms, "chest pain"))
	require.NoError(t, rec.Set(FieldBloodPressure, "140/90 mmHg"))
	require.NoError(t, rec.Set(FieldTriageCode, "yellow"))

	symptoms, err := rec.Get(FieldSymptoms)
	require.NoError(t, err)
	assert.Equal(t, "chest pain", symptoms)

	bp, err := rec.Get(FieldBloodPressure)
	require.NoError(t, err)
	assert.Equal(t, "140/90 mmHg", bp)

	// Triage aliases normalize to the canonical code.
	triage, err := rec.Get(FieldTriageCode)
	require.NoError(t, err)
	assert.Equal(t, "giallo", triage)
}

func TestRecord_SetRejectsUnknownField(t *testing.T) {
	var rec Record
	require.Error(t, rec.Set("shoe_size", "42"))

	_, err := rec.Get("shoe_size")
	require.Error(t, err)
}

func TestRecord_SetRejectsInvalidTriage(t *testing.T) {
	var rec Record
	require.Error(t, rec.Set(FieldTriageCode, "purple"))
	assert.True(t, rec.Assessment.TriageCode.IsBlank())
}

func TestMergeExtracted_InheritsSetupTriage(t *testing.T) {
	extracted := Record{}
	extracted.Assessment.Symptoms = "chest pain"

	merged := MergeExtracted(extracted, TriageYellow)
	assert.Equal(t, TriageYellow, merged.Assessment.TriageCode)
	assert.Equal(t, "chest pain", merged.Assessment.Symptoms)
}

func TestMergeExtracted_KeepsExtractedTriage(t *testing.T) {
	extracted := Record{}
	extracted.Assessment.TriageCode = TriageRed

	// The setup selection never overrides a code the model produced.
	merged := MergeExtracted(extracted, TriageGreen)
	assert.Equal(t, TriageRed, merged.Assessment.TriageCode)
}

func TestRecord_IsEmpty(t *testing.T) {
	var rec Record
	assert.True(t, rec.IsEmpty())

	require.NoError(t, rec.Set(FieldNotes, "follow up in cardiology"))
	assert.False(t, rec.IsEmpty())
}

func TestFieldNames_AllResolvable(t *testing.T) {
	var rec Record
	for _, name := range FieldNames() {
		_, err := rec.Get(name)
		require.NoError(t, err, "field %s should resolve", name)
	}
}
