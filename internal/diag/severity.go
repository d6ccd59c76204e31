package diag

import "strings"

// Severity defines the importance of an issue.
type Severity uint8

const (
	// SevNote is for notes and remarks attached to other diagnostics.
	SevNote Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNote:
		return "note"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Severities lists severities from most to least important.
func Severities() []Severity {
	return []Severity{SevError, SevWarning, SevNote}
}

// ParseSeverity maps toolchain spellings ("fatal error", "remark", ...) to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "fatal error":
		return SevError, true
	case "warning":
		return SevWarning, true
	case "note", "remark":
		return SevNote, true
	}
	return SevNote, false
}
