package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label is the lower-case form used by golden and short output.
func (s Severity) Label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity accepts info|warning|error (case-insensitive, "warn" allowed).
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "convention", "refactor":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error", "fatal":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q", s)
}
