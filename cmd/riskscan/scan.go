package riskscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/suzuki-shunsuke/logrus-error/logerr"

	"github.com/redactyl/riskscan/internal/audit"
	"github.com/redactyl/riskscan/internal/config"
	"github.com/redactyl/riskscan/internal/engine"
	"github.com/redactyl/riskscan/internal/report"
	"github.com/redactyl/riskscan/internal/rules"
)

const (
	formatTable = "table"
	formatText  = "text"
	formatJSON  = "json"
	formatSARIF = "sarif"
)

var (
	flagPath            string
	flagExt             string
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagDefaultExcludes bool
	flagFormat          string
	flagJSON            bool
	flagSARIF           bool
	flagText            bool
	flagTable           bool
	flagFailOn          string
	flagTimeout         time.Duration
	flagDryRun          bool
	flagNoProgress      bool
	flagAudit           bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan source files for risky code",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", "", "path to scan (default \".\"; a positional path takes precedence)")
	cmd.Flags().StringVar(&flagExt, "ext", "", "comma-separated extension allow-list (default \"php,js\")")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (0 = no limit)")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", false, "skip vendored and generated directories (node_modules, dist, etc.)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "output format: table|text|json|sarif (default \"table\")")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "shorthand for --format json")
	cmd.Flags().BoolVar(&flagSARIF, "sarif", false, "shorthand for --format sarif")
	cmd.Flags().BoolVar(&flagText, "text", false, "shorthand for --format text")
	cmd.Flags().BoolVar(&flagTable, "table", false, "shorthand for --format table")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when a finding is at or above: none|low|medium|high|critical (default \"none\")")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "abort the scan after this long (0 = no limit)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the files that would be scanned without opening them")
	cmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "do not draw the progress bar")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a scan summary to the audit log (see `riskscan history`)")
}

// scanPath resolves the scan root: positional argument, then --path, then ".".
func scanPath(args []string) string {
	if len(args) == 1 && args[0] != "" {
		return args[0]
	}
	if flagPath != "" {
		return flagPath
	}
	return "."
}

func resolveFormat(local, global *string) (string, error) {
	cli := flagFormat
	switch {
	case flagSARIF:
		cli = formatSARIF
	case flagJSON:
		cli = formatJSON
	case flagText:
		cli = formatText
	case flagTable:
		cli = formatTable
	}
	f := strings.ToLower(strings.TrimSpace(pickString(cli, local, global)))
	switch f {
	case "":
		return formatTable, nil
	case formatTable, formatText, formatJSON, formatSARIF:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q: want table|text|json|sarif", f)
	}
}

func resolveTimeout(lcfg, gcfg config.FileConfig) (time.Duration, error) {
	if flagTimeout > 0 {
		return flagTimeout, nil
	}
	d, err := config.Merge(gcfg, lcfg).TimeoutDuration()
	if err != nil {
		return 0, fmt.Errorf("invalid timeout in config: %w", err)
	}
	return d, nil
}

// loadConfigs returns the global and repo-local config files for root.
// Missing files yield empty configs; files that exist but cannot be loaded
// are reported and ignored.
func loadConfigs(root string) (config.FileConfig, config.FileConfig) {
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	} else if !errors.Is(err, config.ErrNotFound) {
		logerr.WithError(logE, err).Warn("ignoring global config")
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	} else if !errors.Is(err, config.ErrNotFound) {
		logerr.WithError(logE, err).Warn("ignoring repo-local config")
	}
	return gcfg, lcfg
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	abs, err := filepath.Abs(scanPath(args))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	// Load configs: CLI > local > global
	gcfg, lcfg := loadConfigs(abs)

	format, err := resolveFormat(lcfg.Format, gcfg.Format)
	if err != nil {
		return err
	}
	failOn := pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn)
	if failOn == "" {
		failOn = report.FailNone
	}
	if err := report.ValidateFailOn(failOn); err != nil {
		return err
	}
	timeout, err := resolveTimeout(lcfg, gcfg)
	if err != nil {
		return err
	}
	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)

	cfg := engine.Config{
		Root:            abs,
		Extensions:      engine.ParseExtensions(pickString(flagExt, lcfg.Extensions, gcfg.Extensions)),
		IncludeGlobs:    pickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:    pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		DefaultExcludes: pickBool(flagDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes),
		Logger:          logE,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if flagDryRun {
		targets, err := engine.ListTargets(ctx, cfg)
		if err != nil {
			return scanFailure(err, timeout)
		}
		for _, t := range targets {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	names, err := engine.RuleNames(cfg)
	if err != nil {
		return scanFailure(err, timeout)
	}
	human := format == formatTable || format == formatText
	if human {
		_, _ = fmt.Fprintf(errOut, "Scanning %s with %d rules...\n", abs, len(names))
	}

	// Optional progress bar: simple textual bar
	total := 0
	if human && !flagNoProgress {
		total, _ = engine.CountTargets(ctx, cfg)
	}
	if total > 0 {
		cfg.Progress = progressBar(errOut, total)
	}
	res, err := engine.ScanWithStats(ctx, cfg)
	if total > 0 {
		_, _ = fmt.Fprintln(errOut)
	}
	if err != nil {
		return scanFailure(err, timeout)
	}

	if err := writeFindings(out, format, res, cfg, noColor); err != nil {
		return err
	}

	failed := report.ShouldFail(res.Findings, failOn)
	if pickBool(flagAudit, lcfg.Audit, gcfg.Audit) {
		rec := audit.CreateScanRecord(abs, res.Findings, res.FilesScanned, res.FilesSkipped, res.Duration, failOn, failed)
		if err := audit.NewAuditLog(nil, abs).LogScan(rec); err != nil {
			logerr.WithError(logE, err).Warn("audit log not written")
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func writeFindings(w io.Writer, format string, res engine.Result, cfg engine.Config, noColor bool) error {
	opts := report.PrintOptions{
		NoColor:      noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FilesSkipped: res.FilesSkipped,
	}
	switch format {
	case formatSARIF:
		set, err := engine.LoadRules(cfg)
		if err != nil {
			return err
		}
		stats := map[string]int{"filesScanned": res.FilesScanned, "filesSkipped": res.FilesSkipped}
		if err := report.WriteSARIFWithStats(w, res.Findings, set, buildVersion(), stats); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case formatJSON:
		if err := report.WriteJSON(w, res.Findings); err != nil {
			return fmt.Errorf("json error: %w", err)
		}
	case formatText:
		report.PrintText(w, res.Findings, opts)
	default:
		report.PrintTable(w, res.Findings, opts)
	}
	return nil
}

func progressBar(w io.Writer, total int) func() {
	progressed := 0
	return func() {
		progressed++
		if progressed%10 == 0 || progressed == total {
			pct := float64(progressed) / float64(total) * 100
			_, _ = fmt.Fprintf(w, "\r[%d/%d] %.0f%%", progressed, total, pct)
		}
	}
}

// scanFailure turns an engine error into an exit-2 error with a readable
// message.
func scanFailure(err error, timeout time.Duration) error {
	var ce *rules.ConfigurationError
	switch {
	case errors.As(err, &ce):
		logerr.WithError(logE, err).WithField("rule", ce.Rule).Error("invalid rule configuration")
		return &exitError{code: 2, err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &exitError{code: 2, err: fmt.Errorf("scan timed out after %s", timeout)}
	case errors.Is(err, context.Canceled):
		return &exitError{code: 2, err: errors.New("scan canceled")}
	default:
		return &exitError{code: 2, err: fmt.Errorf("scan error: %w", err)}
	}
}
