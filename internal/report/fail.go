package report

import (
	"fmt"
	"strings"

	"github.com/redactyl/riskscan/internal/types"
)

// FailNone disables the exit-code gate.
const FailNone = "none"

// parseFailOn returns the threshold tier, or SevUnknown for "none".
func parseFailOn(failOn string) (types.Severity, error) {
	v := strings.TrimSpace(failOn)
	if v == "" || strings.EqualFold(v, FailNone) {
		return types.SevUnknown, nil
	}
	sev, err := types.ParseSeverity(v)
	if err != nil {
		return types.SevUnknown, fmt.Errorf("invalid fail-on %q: want none|low|medium|high|critical", failOn)
	}
	return sev, nil
}

// ValidateFailOn checks a --fail-on value.
func ValidateFailOn(failOn string) error {
	_, err := parseFailOn(failOn)
	return err
}

// ShouldFail reports whether any finding is at or above the failOn tier.
// "none", the empty string and invalid values never fail.
func ShouldFail(findings []types.Finding, failOn string) bool {
	th, err := parseFailOn(failOn)
	if err != nil || th == types.SevUnknown {
		return false
	}
	for _, f := range findings {
		if f.Severity >= th {
			return true
		}
	}
	return false
}
