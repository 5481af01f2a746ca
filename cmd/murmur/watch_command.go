package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/daemon"
	"murmur/internal/pipeline"
	"murmur/internal/preflight"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var recursive bool
	var interval int

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and transcribe new files as they settle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("recursive") {
				cfg.Transcription.IncludeSubfolders = recursive
			}
			if cmd.Flags().Changed("interval") {
				cfg.Watch.PollInterval = interval
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := preflight.Require(cfg); err != nil {
				return err
			}

			dir := cfg.Paths.DefaultDirectory
			if len(args) == 1 {
				dir = args[0]
			}
			if err := config.RequireDirectory(dir); err != nil {
				return err
			}

			opts, err := pipeline.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			logger := ctx.commandLogger()
			rt, err := pipeline.Build(cfg, opts, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			d, err := daemon.New(daemon.Config{
				Dir:       dir,
				Recursive: cfg.Transcription.IncludeSubfolders,
				Interval:  time.Duration(cfg.Watch.PollInterval) * time.Second,
				LockPath:  cfg.WatchLockPath(),
			}, rt, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", dir)
			return d.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Include subdirectories (overrides transcription.include_subfolders)")
	cmd.Flags().IntVar(&interval, "interval", 0, "Seconds between polls (overrides watch.poll_interval)")
	return cmd
}
