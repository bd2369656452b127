package clinical

import (
	"fmt"
	"strings"
)

// TriageCode is the urgency classification assigned at triage.
// Canonical values are the Italian color codes used on the ward.
type TriageCode string

const (
	TriageWhite  TriageCode = "bianco"
	TriageGreen  TriageCode = "verde"
	TriageYellow TriageCode = "giallo"
	TriageRed    TriageCode = "rosso"
	TriageBlack  TriageCode = "nero"
)

// triageAliases maps English and sloppy spellings onto canonical codes.
var triageAliases = map[string]TriageCode{
	"bianco": TriageWhite,
	"white":  TriageWhite,
	"verde":  TriageGreen,
	"green":  TriageGreen,
	"giallo": TriageYellow,
	"yellow": TriageYellow,
	"rosso":  TriageRed,
	"red":    TriageRed,
	"nero":   TriageBlack,
	"black":  TriageBlack,
}

// AllTriageCodes returns the canonical codes ordered by increasing urgency.
func AllTriageCodes() []TriageCode {
	return []TriageCode{TriageWhite, TriageGreen, TriageYellow, TriageRed, TriageBlack}
}

// ParseTriageCode normalizes a raw triage string to a canonical code.
// An empty input returns an empty code with no error so callers can apply
// their own defaulting rules.
func ParseTriageCode(raw string) (TriageCode, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", nil
	}

	code, ok := triageAliases[trimmed]
	if !ok {
		return "", fmt.Errorf("unknown triage code %q", raw)
	}

	return code, nil
}

// NormalizeTriageCode is like ParseTriageCode but falls back to white for
// unknown values, matching how the original intake endpoint sanitized input.
func NormalizeTriageCode(raw string) TriageCode {
	code, err := ParseTriageCode(raw)
	if err != nil || code == "" {
		return TriageWhite
	}

	return code
}

// IsBlank reports whether the code carries no selection.
func (tc TriageCode) IsBlank() bool {
	return strings.TrimSpace(string(tc)) == ""
}

// String returns the canonical code value.
func (tc TriageCode) String() string {
	return string(tc)
}
