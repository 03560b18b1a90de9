package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmotbay/clippin/internal/persist"
)

// newHistoryCmd creates the history command. Recent entries live only in the
// daemon's memory, so this inspects the disk-backed pinned sets.
func newHistoryCmd() *cobra.Command {
	var (
		images  bool
		useJSON bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List pinned clipboard entries",
		Long: `List the pinned entries persisted under the data directory.
Recent (unpinned) entries are session-only and not shown here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			disk := persist.New(cfg.DataDir, nil, logger)

			if images {
				entries := disk.LoadPinnedImages()
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				if useJSON {
					return json.NewEncoder(os.Stdout).Encode(entries)
				}
				for _, e := range entries {
					fmt.Printf("%s  %s  [PNG %d bytes]\n",
						e.CapturedAt.Format("2006-01-02 15:04:05"), e.ID, len(e.Data))
				}
				return nil
			}

			entries := disk.LoadPinnedTexts()
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if useJSON {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  %s\n",
					e.CapturedAt.Format("2006-01-02 15:04:05"), e.ID, preview(e.Content, 60))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&images, "images", false, "list pinned images instead of text")
	cmd.Flags().BoolVar(&useJSON, "json", false, "output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries to display (0 = all)")
	return cmd
}

func preview(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
