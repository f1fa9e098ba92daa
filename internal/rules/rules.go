package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/redactyl/riskscan/internal/types"
)

// Rule is a named, compiled pattern with a severity. Rules are built once
// before scanning and shared read-only by every worker.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Severity types.Severity
}

// Spec is the uncompiled form of a rule as supplied by callers.
type Spec struct {
	Name     string `json:"name" yaml:"name"`
	Pattern  string `json:"pattern" yaml:"pattern"`
	Severity string `json:"severity" yaml:"severity"`
}

// ConfigurationError reports a rule that cannot be built. It is fatal and
// raised before any file is touched.
type ConfigurationError struct {
	Rule string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Rule == "" {
		return "invalid rule: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid rule %q: %v", e.Rule, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// New compiles a single rule.
func New(name, pattern string, sev types.Severity) (Rule, error) {
	if strings.TrimSpace(name) == "" {
		return Rule{}, &ConfigurationError{Err: fmt.Errorf("empty rule name")}
	}
	if !sev.Valid() {
		return Rule{}, &ConfigurationError{Rule: name, Err: fmt.Errorf("unknown severity %d", int(sev))}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, &ConfigurationError{Rule: name, Err: err}
	}
	return Rule{Name: name, Pattern: re, Severity: sev}, nil
}

// Set is an ordered collection of rules. The order is the order findings
// for a single line are emitted in.
type Set struct {
	rules []Rule
}

// Compile validates every spec in order and stops at the first bad one.
func Compile(specs []Spec) (Set, error) {
	out := make([]Rule, 0, len(specs))
	for _, s := range specs {
		sev, err := types.ParseSeverity(s.Severity)
		if err != nil {
			return Set{}, &ConfigurationError{Rule: s.Name, Err: err}
		}
		r, err := New(s.Name, s.Pattern, sev)
		if err != nil {
			return Set{}, err
		}
		out = append(out, r)
	}
	return Set{rules: out}, nil
}

// NewSet wraps already compiled rules.
func NewSet(rs ...Rule) Set {
	out := make([]Rule, len(rs))
	copy(out, rs)
	return Set{rules: out}
}

// Rules returns a copy of the rules in evaluation order.
func (s Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s Set) Len() int { return len(s.rules) }

// At returns the i-th rule. It is the allocation-free accessor used on the
// scanning hot path.
func (s Set) At(i int) Rule { return s.rules[i] }

func (s Set) Names() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Name
	}
	return out
}
