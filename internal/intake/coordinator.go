// Package intake implements the emergency-intake workflow coordinator:
// a state machine that walks one session through recording,
// transcription, transcript editing, clinical-data extraction, review
// and report generation against the backend gateway.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/gateway"
)

var (
	// ErrRequestInFlight is returned when a stage transition is already
	// running. The duplicate trigger is a no-op, never queued.
	ErrRequestInFlight = errors.New("a request for this session is already in flight")

	// ErrInvalidTransition is returned when an action does not apply to
	// the current stage.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrMissingPrerequisite is returned when a rewind target's required
	// data does not exist yet.
	ErrMissingPrerequisite = errors.New("target stage prerequisite missing")

	// ErrSessionAbandoned is returned for any action after Abandon.
	ErrSessionAbandoned = errors.New("session abandoned")

	// ErrTranscriptRequired is returned when extraction is requested
	// with an empty transcript.
	ErrTranscriptRequired = errors.New("transcript text required")
)

// Failure describes the last failed transition for the operator: which
// stage failed and whether the data entered so far survived.
type Failure struct {
	Stage         Stage
	Err           error
	DataDiscarded bool
	Message       string
}

// Coordinator drives one session through the intake stages. All state is
// guarded by a mutex; gateway calls run outside the lock and re-validate
// the session epoch before applying their result, so a response landing
// after a re-record or abandon is ignored instead of corrupting the new
// attempt.
type Coordinator struct {
	logger *slog.Logger
	gw     Gateway
	rec    Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	sess      *Session
	stage     Stage
	inflight  bool
	epoch     uint64
	abandoned bool
	lastFail  *Failure
}

// New creates a coordinator for a fresh session. The parent context
// scopes every call the coordinator makes; Abandon cancels it.
func New(parent context.Context, sess *Session, gw Gateway, rec Recorder, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)

	return &Coordinator{
		logger: logger.With("session_id", sess.ID),
		gw:     gw,
		rec:    rec,
		ctx:    ctx,
		cancel: cancel,
		sess:   sess,
		stage:  StageSetup,
	}
}

// Stage returns the current workflow stage.
func (c *Coordinator) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stage
}

// LastFailure returns the most recent failed transition, or nil.
func (c *Coordinator) LastFailure() *Failure {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastFail
}

// SetSetup records the setup-stage fields. Fields may be empty; nothing
// here blocks the move to recording.
func (c *Coordinator) SetSetup(setup Setup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sess.Setup = setup
}

// Setup returns the setup-stage fields.
func (c *Coordinator) Setup() Setup {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Setup
}

// Transcript returns the current transcript text.
func (c *Coordinator) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Transcript
}

// Record returns a copy of the clinical record, or nil before extraction.
func (c *Coordinator) Record() *clinical.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.Record == nil {
		return nil
	}

	rec := *c.sess.Record

	return &rec
}

// DegradedExtraction reports whether the last extraction came from the
// fallback path or carried warnings. It must be shown to the operator
// before report generation is allowed.
func (c *Coordinator) DegradedExtraction() (bool, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Degraded, c.sess.Warnings
}

// ValidationErrors returns extraction's field-level review notes.
func (c *Coordinator) ValidationErrors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.ValidationErrors
}

// Report returns the rendered report handle, or nil before completion.
func (c *Coordinator) Report() *gateway.ReportHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.Report
}

// StartRecording moves Setup -> Recording by acquiring the capture
// device. A device failure is surfaced immediately and leaves the
// machine in setup; there is no retry logic.
func (c *Coordinator) StartRecording() error {
	c.mu.Lock()
	if err := c.checkIdle(StageSetup, "start recording"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if err := c.rec.Start(c.ctx); err != nil {
		c.recordFailure(StageRecording, err, false,
			"could not start recording; setup data preserved")

		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.setStage(StageRecording)

	return nil
}

// StopAndTranscribe finalizes the clip and runs the transcription call:
// Recording -> Transcribing -> Editing on success. On failure the whole
// attempt restarts: no audio is retained for re-submission, so the
// machine returns to Setup with clip and transcript cleared.
func (c *Coordinator) StopAndTranscribe() error {
	c.mu.Lock()
	if err := c.checkIdle(StageRecording, "stop recording"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	clip, err := c.rec.Stop(c.ctx)
	if err != nil {
		c.mu.Lock()
		c.sess.clearDerived()
		c.setStage(StageSetup)
		c.mu.Unlock()

		c.recordFailure(StageRecording, err, true,
			"recording could not be finalized; audio discarded, back to setup")

		return err
	}

	c.mu.Lock()
	c.sess.Clip = clip
	c.setStage(StageTranscribing)
	c.inflight = true
	epoch := c.epoch
	req := gateway.ProcessAudioRequest{
		Clip:        clip,
		Symptoms:    c.sess.Setup.Symptoms,
		TriageCode:  c.sess.Setup.TriageCode,
		TriageNotes: c.sess.Setup.TriageNotes,
		PatientID:   c.sess.Setup.PatientID,
	}
	c.mu.Unlock()

	result, err := c.gw.ProcessAudio(c.ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(epoch) {
		return nil
	}

	if err != nil {
		// Full restart: the clip was consumed and nothing derived from
		// it is trustworthy.
		c.sess.clearDerived()
		c.setStage(StageSetup)
		c.recordFailureLocked(StageTranscribing, err, true,
			"transcription failed; recording discarded, back to setup")

		return err
	}

	c.sess.TranscriptID = result.TranscriptID
	c.sess.EncounterID = result.EncounterID
	c.sess.Transcript = result.Text
	c.setStage(StageEditing)

	return nil
}

// EditTranscript replaces the transcript text with the operator's edit.
// Once populated the transcript never reverts to empty for the rest of
// the session.
func (c *Coordinator) EditTranscript(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.abandoned {
		return ErrSessionAbandoned
	}

	if strings.TrimSpace(text) == "" && c.sess.Transcript != "" {
		return fmt.Errorf("%w: transcript cannot be cleared once populated", ErrTranscriptRequired)
	}

	c.sess.Transcript = text

	return nil
}

// Extract runs the clinical-data extraction: Editing -> Extracting ->
// ReviewingExtraction. On failure the machine stays in Editing so the
// operator can retry without re-recording. A degraded result (fallback
// or warnings) is a success that gets flagged, not an error.
func (c *Coordinator) Extract() error {
	c.mu.Lock()
	if err := c.checkIdle(StageEditing, "extract clinical data"); err != nil {
		c.mu.Unlock()
		return err
	}

	if strings.TrimSpace(c.sess.Transcript) == "" {
		c.mu.Unlock()
		return ErrTranscriptRequired
	}

	c.setStage(StageExtracting)
	c.inflight = true
	epoch := c.epoch
	transcriptID := c.sess.TranscriptID
	text := c.sess.Transcript
	c.mu.Unlock()

	result, err := c.gw.ExtractClinicalData(c.ctx, transcriptID, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(epoch) {
		return nil
	}

	if err != nil {
		// Transcript is untouched; retrying extraction is cheap.
		c.setStage(StageEditing)
		c.recordFailureLocked(StageExtracting, err, false,
			"extraction failed; transcript preserved, retry from editing")

		return err
	}

	merged := clinical.MergeExtracted(result.Record, c.sess.Setup.TriageCode)
	c.sess.Record = &merged
	c.sess.Degraded = result.Degraded()
	c.sess.Warnings = result.Warnings
	c.sess.ValidationErrors = result.ValidationErrors
	c.setStage(StageReviewingExtraction)

	if c.sess.Degraded {
		c.logger.Warn("extraction degraded", "warnings", len(result.Warnings), "fallback", result.Fallback)
	}

	return nil
}

// SetRecordField applies one operator edit to the clinical record.
func (c *Coordinator) SetRecordField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.abandoned {
		return ErrSessionAbandoned
	}

	if c.sess.Record == nil {
		return fmt.Errorf("%w: no clinical record extracted yet", ErrMissingPrerequisite)
	}

	return c.sess.Record.Set(name, value)
}

// GenerateReport persists the operator's edits and then renders the
// report: ReviewingExtraction -> GeneratingReport -> Completed. The
// render call is never attempted against unsaved edits; a persist
// failure keeps the machine in review.
func (c *Coordinator) GenerateReport() error {
	c.mu.Lock()
	if err := c.checkIdle(StageReviewingExtraction, "generate report"); err != nil {
		c.mu.Unlock()
		return err
	}

	if c.sess.Record == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no clinical record to persist", ErrMissingPrerequisite)
	}

	c.inflight = true
	epoch := c.epoch
	transcriptID := c.sess.TranscriptID
	rec := *c.sess.Record
	c.mu.Unlock()

	if err := c.gw.UpdateClinicalData(c.ctx, transcriptID, rec); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		if !c.finish(epoch) {
			return nil
		}

		c.recordFailureLocked(StageReviewingExtraction, err, false,
			"saving edits failed; record preserved, retry from review")

		return err
	}

	c.mu.Lock()
	if !c.stillCurrent(epoch) {
		c.mu.Unlock()
		return nil
	}
	c.setStage(StageGeneratingReport)
	c.mu.Unlock()

	handle, err := c.gw.GenerateReport(c.ctx, transcriptID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finish(epoch) {
		return nil
	}

	if err != nil {
		c.setStage(StageReviewingExtraction)
		c.recordFailureLocked(StageGeneratingReport, err, false,
			"report rendering failed; saved record preserved, retry from review")

		return err
	}

	c.sess.Report = handle
	c.setStage(StageCompleted)

	return nil
}

// RewindTo jumps back to an already-visited stage. This is a manual
// rewind, never an automatic retry: the target's prerequisite data must
// already exist.
func (c *Coordinator) RewindTo(target Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.abandoned {
		return ErrSessionAbandoned
	}

	if c.inflight {
		return ErrRequestInFlight
	}

	if target.Transient() {
		return fmt.Errorf("%w: cannot rewind into transient stage %s", ErrInvalidTransition, target)
	}

	switch target {
	case StageSetup:
		// Always reachable.
	case StageEditing:
		if strings.TrimSpace(c.sess.Transcript) == "" {
			return fmt.Errorf("%w: no transcript for editing", ErrMissingPrerequisite)
		}
	case StageReviewingExtraction:
		if c.sess.Record == nil {
			return fmt.Errorf("%w: no clinical record to review", ErrMissingPrerequisite)
		}
	case StageCompleted:
		if c.sess.Report == nil {
			return fmt.Errorf("%w: no rendered report", ErrMissingPrerequisite)
		}
	default:
		return fmt.Errorf("%w: cannot rewind to %s", ErrInvalidTransition, target)
	}

	c.setStage(target)

	return nil
}

// Rerecord discards the clip and everything derived from it and returns
// to setup. A capture still running is torn down so the device is free
// for the next take; any response still in flight for the old attempt
// is dropped when it lands.
func (c *Coordinator) Rerecord() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.abandoned {
		return ErrSessionAbandoned
	}

	if err := c.rec.Discard(c.ctx); err != nil {
		c.logger.Warn("failed to release capture device", "error", err)
	}

	c.epoch++
	c.inflight = false
	c.sess.clearDerived()
	c.setStage(StageSetup)
	c.logger.Info("re-recording: transcript and clinical record discarded")

	return nil
}

// Abandon ends the session: a running capture is torn down, the session
// context is cancelled so pending gateway calls stop, and any response
// that still arrives is ignored.
func (c *Coordinator) Abandon() {
	c.mu.Lock()
	c.abandoned = true
	c.epoch++
	c.inflight = false
	c.mu.Unlock()

	if err := c.rec.Discard(c.ctx); err != nil {
		c.logger.Warn("failed to release capture device", "error", err)
	}

	c.cancel()
	c.logger.Info("session abandoned")
}

// checkIdle validates that the coordinator is in the wanted stage with
// no request in flight. Callers hold the lock.
func (c *Coordinator) checkIdle(want Stage, action string) error {
	if c.abandoned {
		return ErrSessionAbandoned
	}

	if c.inflight {
		return ErrRequestInFlight
	}

	if c.stage != want {
		return fmt.Errorf("%w: cannot %s from stage %s", ErrInvalidTransition, action, c.stage)
	}

	return nil
}

// finish clears the in-flight marker if the response still belongs to
// the current attempt. Returns false when the attempt was superseded and
// the response must be discarded. Callers hold the lock.
func (c *Coordinator) finish(epoch uint64) bool {
	if !c.stillCurrent(epoch) {
		c.logger.Debug("discarding late response for superseded attempt", "epoch", epoch)
		return false
	}

	c.inflight = false

	return true
}

func (c *Coordinator) stillCurrent(epoch uint64) bool {
	return epoch == c.epoch && !c.abandoned
}

func (c *Coordinator) setStage(next Stage) {
	if c.stage != next {
		c.logger.Info("stage transition", "from", c.stage.String(), "to", next.String())
	}
	c.stage = next
}

func (c *Coordinator) recordFailure(stage Stage, err error, discarded bool, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recordFailureLocked(stage, err, discarded, msg)
}

func (c *Coordinator) recordFailureLocked(stage Stage, err error, discarded bool, msg string) {
	c.lastFail = &Failure{
		Stage:         stage,
		Err:           err,
		DataDiscarded: discarded,
		Message:       msg,
	}
	c.logger.Error("stage failed",
		"stage", stage.String(),
		"data_discarded", discarded,
		"error", err,
	)
}
