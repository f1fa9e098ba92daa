package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/redactyl/riskscan/internal/types"
)

const separator = "--------------------------------------------------"

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
}

// Summary holds per-severity counts for a finding collection. Findings with
// an unknown severity count toward Total only.
type Summary struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}

func Summarize(findings []types.Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case types.SevCritical:
			s.Critical++
		case types.SevHigh:
			s.High++
		case types.SevMedium:
			s.Medium++
		case types.SevLow:
			s.Low++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Findings: %d (critical: %d, high: %d, medium: %d, low: %d)", s.Total, s.Critical, s.High, s.Medium, s.Low)
}

// PrintText renders one block per finding, in the order given.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	paint := severityPainter(opts.NoColor)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No risky code found ✅")
	}
	for _, f := range findings {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "%s Found: %s\n", paint(f.Severity), f.Rule)
		fmt.Fprintf(w, "File: %s:%d\n", f.Path, f.Line)
		fmt.Fprintf(w, "Code: %s\n", f.Snippet)
	}
	if len(findings) > 0 {
		fmt.Fprintln(w, separator)
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings as a bordered table, in the order given.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No risky code found ✅")
	} else {
		paint := severityPainter(opts.NoColor)
		rows := make([][]string, 0, len(findings))
		for _, f := range findings {
			rows = append(rows, []string{
				paint(f.Severity),
				f.Rule,
				f.Path + ":" + strconv.Itoa(f.Line),
				truncate(f.Snippet, 80),
			})
		}
		table := tablewriter.NewWriter(w)
		table.Header("SEVERITY", "RULE", "LOCATION", "CODE")
		if err := table.Bulk(rows); err != nil {
			fmt.Fprintf(w, "render table: %v\n", err)
			return
		}
		if err := table.Render(); err != nil {
			fmt.Fprintf(w, "render table: %v\n", err)
			return
		}
	}
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, Summarize(findings).String())
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FilesSkipped > 0 {
		fmt.Fprintf(w, "Files skipped (unreadable): %d\n", opts.FilesSkipped)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func severityPainter(noColor bool) func(types.Severity) string {
	styles := map[types.Severity]*color.Color{
		types.SevCritical: color.New(color.FgRed, color.Bold),
		types.SevHigh:     color.New(color.FgRed),
		types.SevMedium:   color.New(color.FgYellow),
		types.SevLow:      color.New(color.FgCyan),
	}
	return func(s types.Severity) string {
		c, ok := styles[s]
		if !ok || noColor {
			return s.String()
		}
		return c.Sprint(s.String())
	}
}
