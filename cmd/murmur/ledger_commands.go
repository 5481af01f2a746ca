package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/ledger"
	"murmur/internal/services"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and edit the processed-file ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerRemoveCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCheckCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.openLedger()
			if err != nil {
				return err
			}
			if dir = strings.TrimSpace(dir); dir != "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return fmt.Errorf("resolve directory: %w", err)
				}
				dir = abs
			}
			records := led.List(dir)
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					shortHash(rec.Hash),
					rec.Name,
					rec.Dir,
					rec.ProcessedAt.Local().Format(time.DateTime),
					yesNo(rec.Adopted),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Hash", "Name", "Directory", "Processed", "Adopted"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d record(s) in %s\n", len(records), led.Path())
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Only list files from this directory")
	return cmd
}

func newLedgerRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <hash>",
		Short: "Forget a processed file so it is transcribed again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.openLedger()
			if err != nil {
				return err
			}
			hash := strings.TrimSpace(args[0])
			if err := led.Remove(hash); err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("no ledger record for hash %s", hash)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", hash)
			return nil
		},
	}
}

func newLedgerCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Report whether a file would be skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.openLedger()
			if err != nil {
				return err
			}
			src, err := ledger.NewSourceFile(args[0])
			if err != nil {
				return err
			}
			processed, decision, err := led.Check(src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File: %s\n", src.Path)
			fmt.Fprintf(out, "Hash: %s\n", src.Hash)
			fmt.Fprintf(out, "Processed: %s (%s)\n", yesNo(processed), decision)
			return nil
		},
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
