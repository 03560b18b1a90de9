package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Populated through -ldflags at release build time, e.g.
// -X github.com/marmotbay/clippin/internal/cli/cmd.version=v1.2.0
var (
	version   = "dev"
	buildTime = "unknown"
	commit    = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clippind %s (built %s, commit %s)\n", version, buildTime, commit)
	},
}
