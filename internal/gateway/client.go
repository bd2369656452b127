// Package gateway is the HTTP boundary to the intake backend: transcribe,
// extract, persist and render-report are each a single request/response
// with no internal retry. Retries are always a user-visible re-trigger.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/alkime/intake/internal/audio"
	"github.com/alkime/intake/internal/clinical"
)

// DefaultTimeout bounds each gateway call. Transcription of a long clip is
// the slowest operation, so the default is generous.
const DefaultTimeout = 120 * time.Second

// Transcript is the result of a successful process-audio call.
type Transcript struct {
	TranscriptID string `json:"transcript_id"`
	EncounterID  string `json:"encounter_id"`
	Text         string `json:"transcript"`
}

// Extraction is the result of a successful extract call. Fallback plus
// warnings mark a degraded extraction, a valid result that the workflow
// must surface before allowing advance.
type Extraction struct {
	Record           clinical.Record `json:"extracted_data"`
	ValidationErrors []string        `json:"validation_errors"`
	Fallback         bool            `json:"fallback"`
	Warnings         []string        `json:"warnings"`
}

// Degraded reports whether the extraction came from the fallback path or
// carries warnings the operator must review.
func (e *Extraction) Degraded() bool {
	return e.Fallback || len(e.Warnings) > 0
}

// ReportHandle identifies a rendered report and where to fetch it.
type ReportHandle struct {
	ReportID    string `json:"report_id"`
	DownloadURL string `json:"download_url"`
}

// ProcessAudioRequest carries the finalized clip plus the setup-stage
// fields to the transcription endpoint.
type ProcessAudioRequest struct {
	Clip        *audio.Clip
	Symptoms    string
	TriageCode  clinical.TriageCode
	TriageNotes string
	PatientID   string
}

// Client talks to the intake backend.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// ProcessAudio uploads the clip with its setup metadata and returns the
// transcript. Failures are KindTranscription.
func (c *Client) ProcessAudio(ctx context.Context, req ProcessAudioRequest) (*Transcript, error) {
	const op = "process-audio"

	if req.Clip.Empty() {
		return nil, &Error{Kind: KindTranscription, Op: op, Err: errors.New("audio clip is empty")}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio_file", "clip.mp3")
	if err != nil {
		return nil, &Error{Kind: KindTranscription, Op: op, Err: err}
	}
	if _, err := fw.Write(req.Clip.Data); err != nil {
		return nil, &Error{Kind: KindTranscription, Op: op, Err: err}
	}

	fields := map[string]string{
		"symptoms":     req.Symptoms,
		"triage_code":  req.TriageCode.String(),
		"triage_notes": req.TriageNotes,
		"patient_id":   req.PatientID,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, &Error{Kind: KindTranscription, Op: op, Err: err}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, &Error{Kind: KindTranscription, Op: op, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/visits/process-audio", &body)
	if err != nil {
		return nil, &Error{Kind: KindTranscription, Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var result Transcript
	if err := c.do(httpReq, op, KindTranscription, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ExtractClinicalData sends the (possibly edited) transcript text for
// structured extraction. Failures are KindExtraction; a degraded result
// is returned as a successful Extraction with Fallback/Warnings set.
func (c *Client) ExtractClinicalData(ctx context.Context, transcriptID, transcriptText string) (*Extraction, error) {
	const op = "extract-clinical-data"

	payload := map[string]string{
		"transcript_id":   transcriptID,
		"transcript_text": transcriptText,
	}

	httpReq, err := c.newJSONRequest(ctx, http.MethodPost,
		"/api/clinical-data/extract-from-transcript", payload)
	if err != nil {
		return nil, &Error{Kind: KindExtraction, Op: op, Err: err}
	}

	var result Extraction
	if err := c.do(httpReq, op, KindExtraction, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// UpdateClinicalData persists operator edits to the clinical record.
// Failures are KindPersist.
func (c *Client) UpdateClinicalData(ctx context.Context, transcriptID string, rec clinical.Record) error {
	const op = "update-clinical-data"

	payload := map[string]clinical.Record{"clinical_data": rec}

	httpReq, err := c.newJSONRequest(ctx, http.MethodPatch,
		"/api/transcripts/"+transcriptID+"/update-clinical-data", payload)
	if err != nil {
		return &Error{Kind: KindPersist, Op: op, Err: err}
	}

	return c.do(httpReq, op, KindPersist, nil)
}

// GenerateReport asks the backend to render the report for a persisted
// record. Failures are KindRender.
func (c *Client) GenerateReport(ctx context.Context, transcriptID string) (*ReportHandle, error) {
	const op = "generate-report"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/reports/"+transcriptID+"/generate", nil)
	if err != nil {
		return nil, &Error{Kind: KindRender, Op: op, Err: err}
	}

	var result ReportHandle
	if err := c.do(httpReq, op, KindRender, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DownloadReport fetches the rendered PDF bytes for a report handle.
func (c *Client) DownloadReport(ctx context.Context, handle *ReportHandle) ([]byte, error) {
	const op = "download-report"

	if handle == nil || handle.DownloadURL == "" {
		return nil, &Error{Kind: KindRender, Op: op, Err: errors.New("report handle has no download URL")}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+handle.DownloadURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindRender, Op: op, Err: err}
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, transportError(op, KindRender, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, KindRender, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindRender, Op: op, Err: err}
	}

	return data, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// do executes the request and decodes a JSON response into out (when out
// is non-nil), mapping transport and status failures to typed errors.
func (c *Client) do(req *http.Request, op string, kind Kind, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return transportError(op, kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, kind, resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: kind, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func transportError(op string, kind Kind, err error) *Error {
	timeout := errors.Is(err, context.DeadlineExceeded)

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}

	return &Error{Kind: kind, Op: op, Timeout: timeout, Err: err}
}

func statusError(op string, kind Kind, resp *http.Response) *Error {
	var apiErr struct {
		Error string `json:"error"`
	}

	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	return &Error{Kind: kind, Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
}
