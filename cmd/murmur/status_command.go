package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checkProvider bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, credentials, and local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg, cfg.Paths.DefaultDirectory, checkProvider)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkLabel(r.Passed, color), r.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Result", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			led, err := ctx.openLedger()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Config: %s (found: %s)\n", ctx.configPath, yesNo(ctx.configExists))
			fmt.Fprintf(out, "Ledger: %s (%d record(s))\n", led.Path(), led.Count())
			if cfg.History.Enabled {
				fmt.Fprintf(out, "History: %s\n", cfg.HistoryPath())
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkProvider, "check-provider", false, "Contact the provider to verify the API key")
	return cmd
}
