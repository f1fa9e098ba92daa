package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by LoadLocal and LoadGlobal when no config file
// exists. Any other error means a file was found but could not be loaded.
var ErrNotFound = errors.New("config file not found")

// LocalNames are the repo-local config file names, in search order.
var LocalNames = []string{".riskscan.yml", ".riskscan.yaml", "riskscan.yml", "riskscan.yaml"}

// FileConfig is the on-disk YAML configuration shape for riskscan. Unset keys
// stay nil so callers can layer files under CLI flags.
type FileConfig struct {
	Extensions      *string `yaml:"extensions,omitempty"`
	Include         *string `yaml:"include,omitempty"`
	Exclude         *string `yaml:"exclude,omitempty"`
	MaxBytes        *int64  `yaml:"max_bytes,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	NoColor         *bool   `yaml:"no_color,omitempty"`
	DefaultExcludes *bool   `yaml:"default_excludes,omitempty"`
	FailOn          *string `yaml:"fail_on,omitempty"`
	Format          *string `yaml:"format,omitempty"`
	Timeout         *string `yaml:"timeout,omitempty"`
	Audit           *bool   `yaml:"audit,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, fmt.Errorf("no local config in %s: %w", repoRoot, ErrNotFound)
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, fmt.Errorf("no config dir: %w", ErrNotFound)
	}
	p := filepath.Join(base, "riskscan", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, fmt.Errorf("no global config at %s: %w", p, ErrNotFound)
}

// Merge overlays the set keys of hi onto lo and returns the result.
func Merge(lo, hi FileConfig) FileConfig {
	out := lo
	if hi.Extensions != nil {
		out.Extensions = hi.Extensions
	}
	if hi.Include != nil {
		out.Include = hi.Include
	}
	if hi.Exclude != nil {
		out.Exclude = hi.Exclude
	}
	if hi.MaxBytes != nil {
		out.MaxBytes = hi.MaxBytes
	}
	if hi.Threads != nil {
		out.Threads = hi.Threads
	}
	if hi.NoColor != nil {
		out.NoColor = hi.NoColor
	}
	if hi.DefaultExcludes != nil {
		out.DefaultExcludes = hi.DefaultExcludes
	}
	if hi.FailOn != nil {
		out.FailOn = hi.FailOn
	}
	if hi.Format != nil {
		out.Format = hi.Format
	}
	if hi.Timeout != nil {
		out.Timeout = hi.Timeout
	}
	if hi.Audit != nil {
		out.Audit = hi.Audit
	}
	return out
}

// TimeoutDuration parses the timeout key. Unset or empty means no timeout.
func (fc FileConfig) TimeoutDuration() (time.Duration, error) {
	if fc.Timeout == nil || *fc.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(*fc.Timeout)
}

// Starter is the body written by `riskscan config init`.
const Starter = `# riskscan configuration
# CLI flags override values here; this file overrides ~/.config/riskscan/config.yml.

# Comma-separated extension allow-list (without dots).
extensions: "php,js"

# Comma-separated doublestar globs, relative to the scan root.
# include: "src/**"
# exclude: "**/testdata/**"

# Skip files larger than this many bytes (0 = no limit).
max_bytes: 0

# Worker count (0 = number of CPUs).
threads: 0

# Skip vendored and generated directories such as node_modules and dist.
default_excludes: false

# Exit with status 1 when a finding is at or above this severity.
# One of: none, low, medium, high, critical.
fail_on: none

# Output format: table, text, json or sarif.
format: table

no_color: false

# Abort the scan after this long (Go duration, e.g. 30s). Empty = no limit.
timeout: ""

# Append a summary of each scan to .git/riskscan_audit.jsonl
# (or .riskscan_audit.jsonl outside a git work tree). Snippets are not stored.
audit: false
`
