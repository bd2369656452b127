package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/alkime/intake/internal/clinical"
)

// Visit processing statuses.
const (
	StatusTranscribed = "transcribed"
	StatusExtracted   = "extracted"
	StatusReviewed    = "reviewed"
	StatusReported    = "reported"
)

// ErrVisitNotFound is returned when no visit matches the given id.
var ErrVisitNotFound = errors.New("visit not found")

// Visit is one emergency visit held by the backend: the transcript, the
// setup fields submitted with the audio, the extracted clinical record
// and, once generated, the report.
type Visit struct {
	TranscriptID string
	EncounterID  string
	Transcript   string

	Symptoms    string
	TriageCode  clinical.TriageCode
	TriageNotes string
	PatientID   string

	Record *clinical.Record

	ReportID  string
	ReportPDF []byte

	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is an in-memory visit store keyed by transcript id. It backs the
// reference server; a deployment would swap in a database behind the
// same methods.
type Store struct {
	mu       sync.RWMutex
	visits   map[string]*Visit
	byReport map[string]string
}

// NewStore creates an empty visit store.
func NewStore() *Store {
	return &Store{
		visits:   make(map[string]*Visit),
		byReport: make(map[string]string),
	}
}

// Create registers a freshly transcribed visit and assigns its ids.
func (s *Store) Create(transcript, symptoms string, triage clinical.TriageCode, triageNotes, patientID string) *Visit {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	visit := &Visit{
		TranscriptID: "t-" + newID(),
		EncounterID:  "e-" + newID(),
		Transcript:   transcript,
		Symptoms:     symptoms,
		TriageCode:   triage,
		TriageNotes:  triageNotes,
		PatientID:    patientID,
		Status:       StatusTranscribed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.visits[visit.TranscriptID] = visit

	return visit
}

// Get returns a copy of the visit with the given transcript id.
func (s *Store) Get(transcriptID string) (*Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visit, ok := s.visits[transcriptID]
	if !ok {
		return nil, ErrVisitNotFound
	}
	copied := *visit

	return &copied, nil
}

// GetByReportID returns a copy of the visit owning the given report.
func (s *Store) GetByReportID(reportID string) (*Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcriptID, ok := s.byReport[reportID]
	if !ok {
		return nil, ErrVisitNotFound
	}
	copied := *s.visits[transcriptID]

	return &copied, nil
}

// SetExtraction stores the extraction result and the transcript text it
// was produced from.
func (s *Store) SetExtraction(transcriptID, transcript string, rec clinical.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[transcriptID]
	if !ok {
		return ErrVisitNotFound
	}

	visit.Transcript = transcript
	visit.Record = &rec
	visit.Status = StatusExtracted
	visit.UpdatedAt = time.Now()

	return nil
}

// UpdateRecord replaces the visit's clinical record with the operator's
// reviewed version.
func (s *Store) UpdateRecord(transcriptID string, rec clinical.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[transcriptID]
	if !ok {
		return ErrVisitNotFound
	}

	visit.Record = &rec
	visit.Status = StatusReviewed
	visit.UpdatedAt = time.Now()

	return nil
}

// SaveReport stores the rendered PDF and assigns the report id.
func (s *Store) SaveReport(transcriptID string, pdf []byte) (*Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visit, ok := s.visits[transcriptID]
	if !ok {
		return nil, ErrVisitNotFound
	}

	if visit.ReportID == "" {
		visit.ReportID = "r-" + newID()
		s.byReport[visit.ReportID] = transcriptID
	}
	visit.ReportPDF = pdf
	visit.Status = StatusReported
	visit.UpdatedAt = time.Now()
	copied := *visit

	return &copied, nil
}

func newID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}

	return hex.EncodeToString(buf)
}
