package riskscan

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/redactyl/riskscan/internal/audit"
)

var (
	flagHistoryJSON  bool
	flagHistoryLimit int
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show past scans recorded with --audit",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "emit records as JSON")
	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "show at most this many records (0 = all)")
	rootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	abs, err := filepath.Abs(scanPathOrDot(args))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	log := audit.NewAuditLog(nil, abs)
	records, err := log.LoadHistory()
	if err != nil {
		return fmt.Errorf("no scan history at %s: %w", log.Path(), err)
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}
	out := cmd.OutOrStdout()
	if flagHistoryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := "ok"
		if r.Failed {
			status = "failed (" + r.FailOn + ")"
		}
		rows = append(rows, []string{
			r.Timestamp.Local().Format(time.DateTime),
			strconv.Itoa(r.TotalFindings),
			fmt.Sprintf("%d/%d/%d/%d", r.SeverityCounts["CRITICAL"], r.SeverityCounts["HIGH"], r.SeverityCounts["MEDIUM"], r.SeverityCounts["LOW"]),
			strconv.Itoa(r.FilesScanned),
			r.Duration,
			status,
		})
	}
	table := tablewriter.NewWriter(out)
	table.Header("TIME", "FINDINGS", "C/H/M/L", "FILES", "DURATION", "STATUS")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render history: %w", err)
	}
	return table.Render()
}

func scanPathOrDot(args []string) string {
	if len(args) == 1 && args[0] != "" {
		return args[0]
	}
	return "."
}
