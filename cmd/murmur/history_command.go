package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transcription outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled (history.enabled = false)")
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			var outcomes []history.Outcome
			if runID != "" {
				outcomes, err = store.ByRun(cmd.Context(), runID)
			} else {
				outcomes, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(outcomes) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			color := shouldColorize(out)
			rows := make([][]string, 0, len(outcomes))
			for _, o := range outcomes {
				detail := o.ErrorKind
				if o.ErrorMessage != "" {
					detail = firstLine(o.ErrorMessage)
				}
				rows = append(rows, []string{
					o.FinishedAt.Local().Format(time.DateTime),
					shortRun(o.RunID),
					filepath.Base(o.SourcePath),
					statusLabel(o.Status, color),
					fmt.Sprintf("%d/%d", o.SegmentsOK, o.SegmentsPlanned),
					formatElapsed(o.Elapsed()),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Run", "File", "Status", "Segments", "Time", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show only outcomes for this run ID")
	return cmd
}

func shortRun(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
