package intake

// Stage is a named state in the intake workflow state machine.
type Stage int

const (
	StageSetup Stage = iota
	StageRecording
	StageTranscribing
	StageEditing
	StageExtracting
	StageReviewingExtraction
	StageGeneratingReport
	StageCompleted
)

var stageNames = map[Stage]string{
	StageSetup:               "setup",
	StageRecording:           "recording",
	StageTranscribing:        "transcribing",
	StageEditing:             "editing",
	StageExtracting:          "extracting",
	StageReviewingExtraction: "reviewing-extraction",
	StageGeneratingReport:    "generating-report",
	StageCompleted:           "completed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}

	return "unknown"
}

// Transient reports whether the stage only exists while a recording or a
// gateway call is in progress. Transient stages are never valid rewind
// targets.
func (s Stage) Transient() bool {
	switch s {
	case StageRecording, StageTranscribing, StageExtracting, StageGeneratingReport:
		return true
	default:
		return false
	}
}
