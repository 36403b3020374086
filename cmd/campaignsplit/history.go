package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/campaignsplit/internal/storage"
)

var historyLimit int

// historyCmd lists recent runs from the SQLite ledger.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs recorded in HISTORY_DB_PATH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.History.Enabled() {
			return errors.New("HISTORY_DB_PATH is not set")
		}

		db, err := storage.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history %s: %w", cfg.History.Path, err)
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		return printRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}

func printRuns(w io.Writer, runs []storage.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tPHASE\tARCHIVES\tROWS\tGROUPS\tDURATION")
	for _, r := range runs {
		groups := make([]string, 0, len(r.Groups))
		for _, g := range r.Groups {
			if g.Skipped {
				groups = append(groups, g.Key+"=-")
				continue
			}
			groups = append(groups, fmt.Sprintf("%s=%d", g.Key, g.Rows))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.RunID,
			r.Phase,
			r.Archives,
			r.Rows,
			strings.Join(groups, " "),
			r.Duration.Round(time.Millisecond),
		)
	}
	return tw.Flush()
}
