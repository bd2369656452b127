package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alkime/intake/internal/audio"
	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecorder enforces the real recorder's start/stop pairing: the
// device is held exclusively from Start until Stop or Discard, and a
// second Start while held is rejected.
type fakeRecorder struct {
	mu        sync.Mutex
	recording bool

	startErr error
	stopErr  error
	clip     *audio.Clip

	startCalls   int
	stopCalls    int
	discardCalls int
}

func (f *fakeRecorder) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.startCalls++
	if f.startErr != nil {
		return f.startErr
	}
	if f.recording {
		return errors.New("recorder already started")
	}
	f.recording = true

	return nil
}

func (f *fakeRecorder) Stop(_ context.Context) (*audio.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopCalls++
	if !f.recording {
		return nil, errors.New("recorder not started")
	}
	f.recording = false
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	if f.clip != nil {
		return f.clip, nil
	}

	return &audio.Clip{Data: []byte("mp3"), MIMEType: "audio/mpeg", Duration: 5 * time.Second}, nil
}

func (f *fakeRecorder) Discard(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.discardCalls++
	f.recording = false

	return nil
}

func (f *fakeRecorder) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.recording
}

type fakeGateway struct {
	mu sync.Mutex

	transcribeErr error
	transcript    gateway.Transcript
	extractErr    error
	extraction    gateway.Extraction
	persistErr    error
	renderErr     error
	report        gateway.ReportHandle

	// gate, when set, blocks the next gateway call until released.
	gate chan struct{}

	transcribeCalls int
	extractCalls    int
	persistCalls    int
	renderCalls     int

	lastPersisted clinical.Record
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		transcript: gateway.Transcript{
			TranscriptID: "t-123",
			EncounterID:  "e-456",
			Text:         "Patient presents chest pain",
		},
		report: gateway.ReportHandle{ReportID: "r-789", DownloadURL: "/api/reports/r-789/download"},
	}
}

func (f *fakeGateway) wait() {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeGateway) ProcessAudio(_ context.Context, _ gateway.ProcessAudioRequest) (*gateway.Transcript, error) {
	f.mu.Lock()
	f.transcribeCalls++
	f.mu.Unlock()
	f.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transcribeErr != nil {
		return nil, f.transcribeErr
	}
	t := f.transcript

	return &t, nil
}

func (f *fakeGateway) ExtractClinicalData(_ context.Context, _, _ string) (*gateway.Extraction, error) {
	f.mu.Lock()
	f.extractCalls++
	f.mu.Unlock()
	f.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	e := f.extraction

	return &e, nil
}

func (f *fakeGateway) UpdateClinicalData(_ context.Context, _ string, rec clinical.Record) error {
	f.mu.Lock()
	f.persistCalls++
	f.lastPersisted = rec
	f.mu.Unlock()
	f.wait()

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.persistErr
}

func (f *fakeGateway) GenerateReport(_ context.Context, _ string) (*gateway.ReportHandle, error) {
	f.mu.Lock()
	f.renderCalls++
	f.mu.Unlock()
	f.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	r := f.report

	return &r, nil
}

func newTestCoordinator(t *testing.T, gw *fakeGateway, rec *fakeRecorder) *Coordinator {
	t.Helper()

	return New(context.Background(), NewSession(), gw, rec, nil)
}

func TestCoordinator_HappyPath(t *testing.T) {
	gw := newFakeGateway()
	gw.extraction = gateway.Extraction{
		Record: clinical.Record{
			Assessment: clinical.Assessment{Symptoms: "chest pain"},
		},
	}
	rec := &fakeRecorder{}
	c := newTestCoordinator(t, gw, rec)

	c.SetSetup(Setup{Symptoms: "chest pain", TriageCode: clinical.TriageYellow})

	require.NoError(t, c.StartRecording())
	assert.Equal(t, StageRecording, c.Stage())

	require.NoError(t, c.StopAndTranscribe())
	assert.Equal(t, StageEditing, c.Stage())
	assert.Equal(t, "Patient presents chest pain", c.Transcript())

	require.NoError(t, c.EditTranscript("Patient presents chest pain. BP 140/90."))

	require.NoError(t, c.Extract())
	assert.Equal(t, StageReviewingExtraction, c.Stage())

	// The extracted record carried no triage code, so the setup-stage
	// selection is inherited.
	record := c.Record()
	require.NotNil(t, record)
	assert.Equal(t, clinical.TriageYellow, record.Assessment.TriageCode)

	require.NoError(t, c.GenerateReport())
	assert.Equal(t, StageCompleted, c.Stage())
	require.NotNil(t, c.Report())
	assert.Equal(t, "r-789", c.Report().ReportID)

	assert.Equal(t, 1, gw.transcribeCalls)
	assert.Equal(t, 1, gw.extractCalls)
	assert.Equal(t, 1, gw.persistCalls)
	assert.Equal(t, 1, gw.renderCalls)
	assert.Nil(t, c.LastFailure())
}

func TestCoordinator_ExtractedTriageWins(t *testing.T) {
	gw := newFakeGateway()
	gw.extraction = gateway.Extraction{
		Record: clinical.Record{
			Assessment: clinical.Assessment{TriageCode: clinical.TriageRed},
		},
	}
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	c.SetSetup(Setup{TriageCode: clinical.TriageGreen})
	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.Extract())

	assert.Equal(t, clinical.TriageRed, c.Record().Assessment.TriageCode,
		"an extracted triage code is never overwritten by the setup selection")
}

func TestCoordinator_DeviceUnavailable(t *testing.T) {
	rec := &fakeRecorder{startErr: audio.ErrDeviceUnavailable}
	c := newTestCoordinator(t, newFakeGateway(), rec)

	c.SetSetup(Setup{Symptoms: "fall at home"})

	err := c.StartRecording()
	require.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.Equal(t, StageSetup, c.Stage())
	assert.Equal(t, "fall at home", c.Setup().Symptoms, "setup data survives a device failure")

	fail := c.LastFailure()
	require.NotNil(t, fail)
	assert.False(t, fail.DataDiscarded)
}

func TestCoordinator_TranscriptionFailureRestartsFromSetup(t *testing.T) {
	gw := newFakeGateway()
	gw.transcribeErr = &gateway.Error{Kind: gateway.KindTranscription, Op: "process audio", Err: errors.New("backend down")}
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	c.SetSetup(Setup{Symptoms: "chest pain", TriageCode: clinical.TriageYellow})
	require.NoError(t, c.StartRecording())

	err := c.StopAndTranscribe()
	require.Error(t, err)
	assert.Equal(t, StageSetup, c.Stage())
	assert.Empty(t, c.Transcript())

	// Setup fields survive the restart, the clip does not.
	assert.Equal(t, "chest pain", c.Setup().Symptoms)

	fail := c.LastFailure()
	require.NotNil(t, fail)
	assert.Equal(t, StageTranscribing, fail.Stage)
	assert.True(t, fail.DataDiscarded)
}

func TestCoordinator_ExtractionFailureStaysInEditing(t *testing.T) {
	gw := newFakeGateway()
	gw.extractErr = &gateway.Error{Kind: gateway.KindExtraction, Op: "extract", Err: errors.New("model unavailable")}
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.EditTranscript("Patient presents chest pain. BP 140/90."))

	err := c.Extract()
	require.Error(t, err)
	assert.Equal(t, StageEditing, c.Stage())
	assert.Equal(t, "Patient presents chest pain. BP 140/90.", c.Transcript(),
		"edited transcript survives an extraction failure")

	// Retry succeeds without touching the recorder again.
	gw.mu.Lock()
	gw.extractErr = nil
	gw.mu.Unlock()
	require.NoError(t, c.Extract())
	assert.Equal(t, StageReviewingExtraction, c.Stage())
	assert.Equal(t, 1, gw.transcribeCalls)
	assert.Equal(t, 2, gw.extractCalls)
}

func TestCoordinator_DegradedExtractionIsFlaggedSuccess(t *testing.T) {
	gw := newFakeGateway()
	gw.extraction = gateway.Extraction{
		Record:   clinical.Record{Assessment: clinical.Assessment{Symptoms: "chest pain"}},
		Fallback: true,
		Warnings: []string{"extraction model unavailable, keyword fallback used"},
	}
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.Extract())

	assert.Equal(t, StageReviewingExtraction, c.Stage())
	degraded, warnings := c.DegradedExtraction()
	assert.True(t, degraded)
	assert.Len(t, warnings, 1)
	assert.Nil(t, c.LastFailure(), "degraded extraction is not a failure")
}

func TestCoordinator_TranscriptNeverRevertsToEmpty(t *testing.T) {
	c := newTestCoordinator(t, newFakeGateway(), &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NotEmpty(t, c.Transcript())

	err := c.EditTranscript("   ")
	require.ErrorIs(t, err, ErrTranscriptRequired)
	assert.Equal(t, "Patient presents chest pain", c.Transcript())
}

func TestCoordinator_ExtractRequiresTranscript(t *testing.T) {
	gw := newFakeGateway()
	gw.transcript.Text = ""
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())

	err := c.Extract()
	require.ErrorIs(t, err, ErrTranscriptRequired)
	assert.Equal(t, 0, gw.extractCalls)
}

func TestCoordinator_PersistFailureBlocksRender(t *testing.T) {
	gw := newFakeGateway()
	gw.persistErr = &gateway.Error{Kind: gateway.KindPersist, Op: "update", Err: errors.New("storage unavailable")}
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.Extract())
	require.NoError(t, c.SetRecordField(clinical.FieldBloodPressure, "140/90 mmHg"))

	err := c.GenerateReport()
	require.Error(t, err)
	assert.Equal(t, StageReviewingExtraction, c.Stage())
	assert.Equal(t, 0, gw.renderCalls, "render is never attempted against unsaved edits")

	bp, _ := c.Record().Get(clinical.FieldBloodPressure)
	assert.Equal(t, "140/90 mmHg", bp, "edits survive a persist failure")

	gw.mu.Lock()
	gw.persistErr = nil
	gw.mu.Unlock()
	require.NoError(t, c.GenerateReport())
	assert.Equal(t, StageCompleted, c.Stage())
	assert.Equal(t, "140/90 mmHg", gw.lastPersisted.Vitals.BloodPressure)
}

func TestCoordinator_RenderFailureReturnsToReview(t *testing.T) {
	gw := newFakeGateway()
	gw.renderErr = &gateway.Error{Kind: gateway.KindRender, Op: "generate report", Err: errors.New("renderer crashed")}
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.Extract())

	err := c.GenerateReport()
	require.Error(t, err)
	assert.Equal(t, StageReviewingExtraction, c.Stage())
	assert.Equal(t, 1, gw.persistCalls)
	require.NotNil(t, c.Record(), "persisted record is preserved for retry")

	fail := c.LastFailure()
	require.NotNil(t, fail)
	assert.Equal(t, StageGeneratingReport, fail.Stage)
	assert.False(t, fail.DataDiscarded)
}

func TestCoordinator_DuplicateTriggerIsNoOp(t *testing.T) {
	gw := newFakeGateway()
	gate := make(chan struct{})
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())

	gw.mu.Lock()
	gw.gate = gate
	gw.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Extract() }()

	require.Eventually(t, func() bool {
		return c.Stage() == StageExtracting
	}, time.Second, 5*time.Millisecond)

	err := c.Extract()
	require.ErrorIs(t, err, ErrRequestInFlight)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gw.extractCalls, "second trigger issues no duplicate call")
}

func TestCoordinator_RerecordDiscardsLateResponse(t *testing.T) {
	gw := newFakeGateway()
	gate := make(chan struct{})
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())

	gw.mu.Lock()
	gw.gate = gate
	gw.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.StopAndTranscribe() }()

	require.Eventually(t, func() bool {
		return c.Stage() == StageTranscribing
	}, time.Second, 5*time.Millisecond)

	// Operator starts over while the call is still out.
	require.NoError(t, c.Rerecord())
	assert.Equal(t, StageSetup, c.Stage())

	close(gate)
	require.NoError(t, <-done, "superseded response is dropped, not surfaced")

	assert.Equal(t, StageSetup, c.Stage())
	assert.Empty(t, c.Transcript(), "late transcript must not leak into the new attempt")
}

func TestCoordinator_RerecordClearsDerivedData(t *testing.T) {
	c := newTestCoordinator(t, newFakeGateway(), &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.Extract())
	require.NotNil(t, c.Record())

	require.NoError(t, c.Rerecord())
	assert.Equal(t, StageSetup, c.Stage())
	assert.Empty(t, c.Transcript())
	assert.Nil(t, c.Record())
	assert.Nil(t, c.Report())
}

func TestCoordinator_RerecordWhileRecordingReleasesDevice(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestCoordinator(t, newFakeGateway(), rec)

	require.NoError(t, c.StartRecording())
	require.True(t, rec.IsRecording())

	require.NoError(t, c.Rerecord())
	assert.Equal(t, StageSetup, c.Stage())
	assert.False(t, rec.IsRecording(), "capture must be torn down, not left running")
	assert.Equal(t, 1, rec.discardCalls)
	assert.Equal(t, 0, rec.stopCalls, "no clip is finalized for a discarded take")

	// The device is free again for the next take.
	require.NoError(t, c.StartRecording())
	assert.Equal(t, StageRecording, c.Stage())
	require.NoError(t, c.StopAndTranscribe())
	assert.Equal(t, StageEditing, c.Stage())
}

func TestCoordinator_AbandonWhileRecordingReleasesDevice(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestCoordinator(t, newFakeGateway(), rec)

	require.NoError(t, c.StartRecording())
	require.True(t, rec.IsRecording())

	c.Abandon()
	assert.False(t, rec.IsRecording(), "abandoning mid-recording must release the device")
	assert.Equal(t, 1, rec.discardCalls)
}

func TestCoordinator_RewindGating(t *testing.T) {
	c := newTestCoordinator(t, newFakeGateway(), &fakeRecorder{})

	// Nothing exists yet: only setup is reachable.
	require.ErrorIs(t, c.RewindTo(StageEditing), ErrMissingPrerequisite)
	require.ErrorIs(t, c.RewindTo(StageReviewingExtraction), ErrMissingPrerequisite)
	require.ErrorIs(t, c.RewindTo(StageCompleted), ErrMissingPrerequisite)
	require.ErrorIs(t, c.RewindTo(StageTranscribing), ErrInvalidTransition)

	require.NoError(t, c.StartRecording())
	require.NoError(t, c.StopAndTranscribe())
	require.NoError(t, c.Extract())
	require.NoError(t, c.GenerateReport())
	require.Equal(t, StageCompleted, c.Stage())

	// With transcript, record and report in hand every durable stage is
	// reachable again.
	require.NoError(t, c.RewindTo(StageEditing))
	assert.Equal(t, StageEditing, c.Stage())
	require.NoError(t, c.RewindTo(StageReviewingExtraction))
	require.NoError(t, c.RewindTo(StageCompleted))
	require.NoError(t, c.RewindTo(StageSetup))
}

func TestCoordinator_AbandonStopsEverything(t *testing.T) {
	gw := newFakeGateway()
	c := newTestCoordinator(t, gw, &fakeRecorder{})

	require.NoError(t, c.StartRecording())
	c.Abandon()

	require.ErrorIs(t, c.StopAndTranscribe(), ErrSessionAbandoned)
	require.ErrorIs(t, c.StartRecording(), ErrSessionAbandoned)
	require.ErrorIs(t, c.EditTranscript("x"), ErrSessionAbandoned)
	require.ErrorIs(t, c.RewindTo(StageSetup), ErrSessionAbandoned)
	assert.Equal(t, 0, gw.transcribeCalls)
}

func TestCoordinator_ActionsRejectedOutsideTheirStage(t *testing.T) {
	c := newTestCoordinator(t, newFakeGateway(), &fakeRecorder{})

	require.ErrorIs(t, c.StopAndTranscribe(), ErrInvalidTransition)
	require.ErrorIs(t, c.Extract(), ErrInvalidTransition)
	require.ErrorIs(t, c.GenerateReport(), ErrInvalidTransition)
	require.ErrorIs(t, c.SetRecordField(clinical.FieldSymptoms, "x"), ErrMissingPrerequisite)

	require.NoError(t, c.StartRecording())
	require.ErrorIs(t, c.StartRecording(), ErrInvalidTransition)
}
