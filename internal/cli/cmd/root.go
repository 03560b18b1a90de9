package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marmotbay/clippin/internal/config"
	"github.com/marmotbay/clippin/pkg/logging"
)

var (
	// Global flags
	configFile string
	verbose    bool

	// Shared resources, initialized in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clippind",
	Short: "A menu-bar clipboard history daemon for macOS",
	Long: `Clippin watches the system pasteboard and keeps a bounded history of
recent text and image entries. Entries can be pinned for durable JSON-backed
persistence and re-injected onto the clipboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger = logging.New(logging.Options{
			Level:      level,
			File:       cfg.LogFile(),
			MaxSizeMB:  cfg.Log.MaxLogSizeMB,
			MaxBackups: cfg.Log.MaxLogFiles,
			Console:    verbose,
		})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/clippin/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose console output")

	rootCmd.AddCommand(
		newRunCmd(),
		newHistoryCmd(),
		newPrefsCmd(),
		versionCmd,
	)
}
