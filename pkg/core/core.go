package core

import (
	"context"

	"github.com/redactyl/riskscan/internal/engine"
	"github.com/redactyl/riskscan/internal/rules"
	"github.com/redactyl/riskscan/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.Config
type Result = engine.Result
type Finding = types.Finding
type Severity = types.Severity
type RuleSpec = rules.Spec
type ConfigurationError = rules.ConfigurationError

const (
	SevLow      = types.SevLow
	SevMedium   = types.SevMedium
	SevHigh     = types.SevHigh
	SevCritical = types.SevCritical
)

// Scan is the stable entrypoint for other programs. Findings come back in
// aggregated order: path, then line, then rule order.
func Scan(ctx context.Context, cfg Config) ([]Finding, error) {
	return engine.Scan(ctx, cfg)
}

// ScanWithStats is Scan plus file counters and wall time.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	return engine.ScanWithStats(ctx, cfg)
}

// RuleNames returns the names of the rules cfg would apply, in evaluation
// order.
func RuleNames(cfg Config) ([]string, error) { return engine.RuleNames(cfg) }

// DefaultRules returns the built-in rule table as specs, suitable as a
// starting point for Config.Rules.
func DefaultRules() []RuleSpec { return rules.DefaultSpecs() }
