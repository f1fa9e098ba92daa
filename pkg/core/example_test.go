package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/redactyl/riskscan/pkg/core"
)

// ExampleScan demonstrates how to perform a simple scan of a directory.
func ExampleScan() {
	cfg := core.Config{
		Root:         ".",
		Threads:      4,
		Extensions:   []string{"php", "js"},
		IncludeGlobs: "src/**",
		MaxBytes:     1024 * 1024,
	}

	findings, err := core.Scan(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}

	if len(findings) == 0 {
		fmt.Println("No risky code found.")
	} else {
		fmt.Printf("Found %d risky lines.\n", len(findings))
		_ = core.MarshalFindings(os.Stdout, findings)
	}
}

// ExampleScanWithStats shows how to run a scan with a custom rule appended to
// the built-in table.
func ExampleScanWithStats() {
	specs := append(core.DefaultRules(), core.RuleSpec{
		Name:     "Shell Exec",
		Pattern:  `shell_exec\s*\(`,
		Severity: "HIGH",
	})
	cfg := core.Config{Root: "testdata", Rules: specs}

	result, err := core.ScanWithStats(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}
	fmt.Printf("Scanned %d files in %s\n", result.FilesScanned, result.Duration)
	fmt.Printf("Found %d risky lines\n", len(result.Findings))
}
