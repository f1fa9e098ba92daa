package riskscan

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildVersion prefers the module version stamped by `go install` over the
// compiled-in default.
func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return version
}

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the riskscan version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "riskscan", buildVersion())
		},
	}
	rootCmd.AddCommand(cmd)
}
