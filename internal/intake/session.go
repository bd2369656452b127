package intake

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/alkime/intake/internal/audio"
	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/gateway"
)

// Setup holds the fields the operator fills in before recording starts.
// They may be empty strings; no hard validation blocks the transition to
// recording.
type Setup struct {
	Symptoms    string
	TriageCode  clinical.TriageCode
	TriageNotes string
	PatientID   string
}

// Session is one emergency intake attempt. It exclusively owns the audio
// clip, transcript, clinical record and report handle produced along the
// way: a new session starts all of them empty, nothing is shared between
// sessions.
type Session struct {
	ID        string
	CreatedAt time.Time

	Setup Setup

	Clip         *audio.Clip
	TranscriptID string
	EncounterID  string
	Transcript   string

	Record           *clinical.Record
	Degraded         bool
	Warnings         []string
	ValidationErrors []string

	Report *gateway.ReportHandle
}

// NewSession creates an empty session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:        newSessionID(),
		CreatedAt: time.Now(),
	}
}

// clearDerived drops everything derived from the recorded audio. Used
// when the operator re-records: transcript and clinical record came from
// the discarded clip, so they go with it.
func (s *Session) clearDerived() {
	s.Clip = nil
	s.TranscriptID = ""
	s.EncounterID = ""
	s.Transcript = ""
	s.Record = nil
	s.Degraded = false
	s.Warnings = nil
	s.ValidationErrors = nil
	s.Report = nil
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read only fails when the OS entropy source is broken;
		// fall back to a timestamp id rather than aborting intake.
		return time.Now().Format("20060102150405.000000000")
	}

	return hex.EncodeToString(buf)
}
