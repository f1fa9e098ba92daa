package riskscan

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/redactyl/riskscan/internal/rules"
)

var flagRulesJSON bool

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			specs := rules.DefaultSpecs()
			if flagRulesJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(specs)
			}
			rows := make([][]string, 0, len(specs))
			for _, s := range specs {
				rows = append(rows, []string{s.Name, s.Severity, s.Pattern})
			}
			table := tablewriter.NewWriter(out)
			table.Header("NAME", "SEVERITY", "PATTERN")
			if err := table.Bulk(rows); err != nil {
				return fmt.Errorf("render rules: %w", err)
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&flagRulesJSON, "json", false, "emit rules as JSON")
	rootCmd.AddCommand(cmd)
}
