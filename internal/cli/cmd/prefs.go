package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	"github.com/marmotbay/clippin/internal/prefs"
)

// newPrefsCmd creates the prefs command with get/set subcommands operating
// on the preference database.
func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect and change user preferences",
	}
	cmd.AddCommand(newPrefsGetCmd(), newPrefsSetCmd())
	return cmd
}

func newPrefsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(func(p *prefs.Store) error {
				v := p.Get()
				fmt.Printf("history-limit:      %d\n", v.HistoryLimit)
				fmt.Printf("poll-interval:      %gs\n", v.PollInterval)
				fmt.Printf("prevent-duplicates: %t\n", v.PreventDuplicates)
				fmt.Printf("save-images:        %t\n", v.SaveImages)
				fmt.Printf("auto-start:         %t\n", v.AutoStart)
				return nil
			})
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a preference (history-limit, poll-interval, prevent-duplicates, save-images, auto-start)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return withPrefs(func(p *prefs.Store) error {
				switch key {
				case "history-limit":
					n, err := strconv.Atoi(value)
					if err != nil {
						return fmt.Errorf("history-limit must be an integer: %w", err)
					}
					return p.SetHistoryLimit(n)
				case "poll-interval":
					f, err := strconv.ParseFloat(value, 64)
					if err != nil {
						return fmt.Errorf("poll-interval must be a number of seconds: %w", err)
					}
					return p.SetPollInterval(f)
				case "prevent-duplicates":
					b, err := strconv.ParseBool(value)
					if err != nil {
						return fmt.Errorf("prevent-duplicates must be a boolean: %w", err)
					}
					return p.SetPreventDuplicates(b)
				case "save-images":
					b, err := strconv.ParseBool(value)
					if err != nil {
						return fmt.Errorf("save-images must be a boolean: %w", err)
					}
					return p.SetSaveImages(b)
				case "auto-start":
					b, err := strconv.ParseBool(value)
					if err != nil {
						return fmt.Errorf("auto-start must be a boolean: %w", err)
					}
					return p.SetAutoStart(b)
				default:
					return fmt.Errorf("unknown preference %q", key)
				}
			})
		},
	}
}

// withPrefs opens the preference database for the duration of fn. The daemon
// holds the database lock while running, so stop it before changing
// preferences from the CLI.
func withPrefs(fn func(*prefs.Store) error) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := bbolt.Open(cfg.DBFile(), 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open database (is the daemon running?): %w", err)
	}
	defer db.Close()

	p, err := prefs.Open(db, logger)
	if err != nil {
		return err
	}
	return fn(p)
}
