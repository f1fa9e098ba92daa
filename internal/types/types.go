package types

import (
	"fmt"
	"strings"
)

// Severity is a coarse-grained risk tier for a finding. Higher values are
// more severe, so severities compare with the usual integer operators.
type Severity int

const (
	SevUnknown Severity = iota
	SevLow
	SevMedium
	SevHigh
	SevCritical
)

var severityNames = map[Severity]string{
	SevLow:      "LOW",
	SevMedium:   "MEDIUM",
	SevHigh:     "HIGH",
	SevCritical: "CRITICAL",
}

// Severities lists every known tier from most to least severe.
func Severities() []Severity {
	return []Severity{SevCritical, SevHigh, SevMedium, SevLow}
}

func (s Severity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// Valid reports whether s is one of the known tiers.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// ParseSeverity converts a case-insensitive tier name into a Severity.
func ParseSeverity(s string) (Severity, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for sev, name := range severityNames {
		if name == want {
			return sev, nil
		}
	}
	return SevUnknown, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Finding describes one rule match on one line of one file. It owns copies
// of the rule name and severity so it can outlive the scan that produced it.
type Finding struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	Snippet     string   `json:"snippet"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}
