package gateway

import (
	"errors"
	"fmt"
)

// Kind identifies which gateway operation failed. The coordinator uses it
// to pick the correct backward transition, so a blanket "request failed"
// is never returned.
type Kind string

const (
	KindTranscription Kind = "transcription"
	KindExtraction    Kind = "extraction"
	KindPersist       Kind = "persist"
	KindRender        Kind = "render"
)

// Error is the typed failure returned by every gateway call.
// Timeout is orthogonal to Kind: a timed-out extraction still carries
// KindExtraction so the workflow takes the extraction failure path.
type Error struct {
	Kind    Kind
	Op      string
	Status  int // HTTP status, 0 for transport failures
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
	}

	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}

	return "", false
}

// IsTimeout reports whether the error chain carries a network timeout.
func IsTimeout(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Timeout
	}

	return false
}
