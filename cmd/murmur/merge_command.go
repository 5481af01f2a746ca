package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/transcript"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge [dir]",
		Short: "Concatenate the transcripts in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.DefaultDirectory
			if len(args) == 1 {
				dir = args[0]
			}
			if err := config.RequireDirectory(dir); err != nil {
				return err
			}
			path, count, err := transcript.Merge(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d transcript(s) into %s\n", count, path)
			return nil
		},
	}
}
