// =============================================================================
// XLSX Report Engine - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   reports version [--short]
//
// Version and BuildDate are stamped at link time:
//   go build -ldflags "-X github.com/ginjaninja78/xlsx-report-engine/cmd.Version=0.3.0"
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)

var shortVersion bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the report engine",

	// Printing the version needs no configuration.
	PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
	PersistentPostRunE: func(*cobra.Command, []string) error { return nil },

	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if shortVersion {
			fmt.Fprintln(out, Version)
			return
		}
		fmt.Fprintf(out, "XLSX Report Engine %s (built %s, %s %s/%s)\n",
			Version, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print the version number only")
	rootCmd.AddCommand(versionCmd)
}
