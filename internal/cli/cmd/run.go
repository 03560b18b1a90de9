package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/marmotbay/clippin/internal/pasteboard"
	"github.com/marmotbay/clippin/internal/persist"
	"github.com/marmotbay/clippin/internal/prefs"
	"github.com/marmotbay/clippin/internal/store"
)

// newRunCmd creates the run command: the daemon's main loop.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard capture daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			db, err := bbolt.Open(cfg.DBFile(), 0o600, &bbolt.Options{Timeout: 1 * time.Second})
			if err != nil {
				return fmt.Errorf("failed to open database (is another instance running?): %w", err)
			}
			defer db.Close()

			preferences, err := prefs.Open(db, logger)
			if err != nil {
				return err
			}

			engine := store.New(store.Options{
				Pasteboard:    pasteboard.New(logger),
				Prefs:         preferences,
				Disk:          persist.New(cfg.DataDir, db, logger),
				Logger:        logger,
				MaxImageBytes: cfg.MaxImageBytes,
			})
			if err := engine.Start(); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Info("Shutting down", zap.String("signal", sig.String()))

			engine.Stop()
			return nil
		},
	}
}
