package diag

import "strings"

// Severity defines the importance of a diagnostic entry. The numeric order is
// the sort rank: errors first.
type Severity uint8

const (
	// SevError is for hard errors.
	SevError Severity = iota
	// SevWarning is for lint and compiler warnings.
	SevWarning
	// SevNote is for attached notes.
	SevNote
	// SevHelp is for help suggestions.
	SevHelp
)

// String returns the rustc-style lowercase level name.
func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevNote:
		return "note"
	case SevHelp:
		return "help"
	}
	return "unknown"
}

// ParseSeverity maps a rustc level string onto a Severity. Unrecognized
// levels fold to SevError; ok is false so the caller can log the anomaly.
// ICEs arrive as "error: internal compiler error" and count as errors.
func ParseSeverity(level string) (sev Severity, ok bool) {
	switch level {
	case "error":
		return SevError, true
	case "warning":
		return SevWarning, true
	case "note":
		return SevNote, true
	case "help":
		return SevHelp, true
	}
	if strings.HasPrefix(level, "error:") {
		return SevError, true
	}
	return SevError, false
}
