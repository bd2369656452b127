package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alkime/intake/internal/audio"
	"github.com/alkime/intake/internal/clinical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClip() *audio.Clip {
	return &audio.Clip{
		Data:     []byte("fake-mp3-bytes"),
		MIMEType: "audio/mpeg",
		Duration: 5 * time.Second,
	}
}

func TestClient_ProcessAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/visits/process-audio", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "chest pain", r.FormValue("symptoms"))
		assert.Equal(t, "giallo", r.FormValue("triage_code"))

		file, _, err := r.FormFile("audio_file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"transcript_id": "t-123",
			"encounter_id":  "e-456",
			"transcript":    "Patient presents chest pain",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.ProcessAudio(context.Background(), ProcessAudioRequest{
		Clip:       testClip(),
		Symptoms:   "chest pain",
		TriageCode: clinical.TriageYellow,
	})
	require.NoError(t, err)
	assert.Equal(t, "t-123", result.TranscriptID)
	assert.Equal(t, "Patient presents chest pain", result.Text)
}

func TestClient_ProcessAudio_EmptyClip(t *testing.T) {
	client := NewClient("http://unused", 5*time.Second)

	_, err := client.ProcessAudio(context.Background(), ProcessAudioRequest{})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTranscription, kind)
}

func TestClient_ProcessAudio_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "transcription backend down"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.ProcessAudio(context.Background(), ProcessAudioRequest{Clip: testClip()})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTranscription, kind)
	assert.Contains(t, err.Error(), "transcription backend down")
	assert.False(t, IsTimeout(err))
}

func TestClient_ExtractClinicalData_Degraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/clinical-data/extract-from-transcript", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "t-123", payload["transcript_id"])

		json.NewEncoder(w).Encode(map[string]any{
			"extracted_data": map[string]any{
				"clinical_assessment": map[string]any{"symptoms": "chest pain"},
			},
			"fallback": true,
			"warnings": []string{"extraction model unavailable, keyword fallback used"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.ExtractClinicalData(context.Background(), "t-123", "Patient presents chest pain")
	require.NoError(t, err, "degraded extraction is not an error")
	assert.True(t, result.Degraded())
	assert.Equal(t, "chest pain", result.Record.Assessment.Symptoms)
}

func TestClient_ExtractClinicalData_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no transcript"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.ExtractClinicalData(context.Background(), "missing", "text")
	require.Error(t, err)

	kind, _ := KindOf(err)
	assert.Equal(t, KindExtraction, kind)
}

func TestClient_UpdateClinicalData(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"message": "updated"})
	}))
	defer srv.Close()

	var rec clinical.Record
	require.NoError(t, rec.Set(clinical.FieldSymptoms, "chest pain"))

	client := NewClient(srv.URL, 5*time.Second)
	err := client.UpdateClinicalData(context.Background(), "t-123", rec)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/transcripts/t-123/update-clinical-data", gotPath)
}

func TestClient_UpdateClinicalData_PersistError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	err := client.UpdateClinicalData(context.Background(), "t-123", clinical.Record{})
	require.Error(t, err)

	kind, _ := KindOf(err)
	assert.Equal(t, KindPersist, kind)
}

func TestClient_GenerateAndDownloadReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reports/t-123/generate":
			json.NewEncoder(w).Encode(map[string]string{
				"report_id":    "r-789",
				"download_url": "/api/reports/r-789/download",
			})
		case "/api/reports/r-789/download":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	handle, err := client.GenerateReport(context.Background(), "t-123")
	require.NoError(t, err)
	assert.Equal(t, "r-789", handle.ReportID)

	pdf, err := client.DownloadReport(context.Background(), handle)
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "%PDF")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 20*time.Millisecond)
	_, err := client.GenerateReport(context.Background(), "t-123")
	require.Error(t, err)

	// Timeouts keep their operation kind so the workflow still takes the
	// render failure path.
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindRender, kind)
	assert.True(t, IsTimeout(err))
}
