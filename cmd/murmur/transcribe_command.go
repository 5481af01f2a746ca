package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/history"
	"murmur/internal/pipeline"
	"murmur/internal/preflight"
	"murmur/internal/scan"
)

type transcribeFlags struct {
	recursive   bool
	language    string
	diarize     bool
	concurrency int
	rate        float64
	workers     int
	force       bool
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe [path...]",
		Short: "Transcribe media files or directories",
		Long: `Transcribe every supported media file in the given files or directories.

With no arguments the configured paths.default_directory is used. Files already
recorded in the ledger are skipped unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyTranscribeFlags(cmd, cfg, &flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := preflight.Require(cfg); err != nil {
				return err
			}

			recursive := cfg.Transcription.IncludeSubfolders
			if len(args) == 0 {
				dir := cfg.Paths.DefaultDirectory
				if err := config.RequireDirectory(dir); err != nil {
					return err
				}
				args = []string{dir}
			}
			files, err := scan.Resolve(args, recursive)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No media files found")
				return nil
			}

			opts, err := pipeline.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			opts.Force = flags.force

			rt, err := pipeline.Build(cfg, opts, ctx.commandLogger())
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintf(out, "Transcribing %d file(s)\n", len(files))
			result := rt.ProcessBatch(cmd.Context(), files)
			printBatch(out, result, shouldColorize(out))

			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			if result.HasFailures() {
				summary := result.Summary()
				return fmt.Errorf("%d of %d file(s) did not complete", summary.Failed+summary.Interrupted, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "Include subdirectories (overrides transcription.include_subfolders)")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "Language hint or \"auto\" (overrides transcription.language)")
	cmd.Flags().BoolVar(&flags.diarize, "diarize", false, "Label speakers (overrides transcription.diarize)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Maximum in-flight provider requests (overrides dispatch.max_concurrent)")
	cmd.Flags().Float64Var(&flags.rate, "rate", 0, "Provider requests per second (overrides dispatch.rate_per_second)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Files processed in parallel (overrides transcription.workers)")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Transcribe files even if the ledger lists them")
	return cmd
}

func applyTranscribeFlags(cmd *cobra.Command, cfg *config.Config, flags *transcribeFlags) {
	fs := cmd.Flags()
	if fs.Changed("recursive") {
		cfg.Transcription.IncludeSubfolders = flags.recursive
	}
	if fs.Changed("language") {
		cfg.Transcription.Language = strings.TrimSpace(flags.language)
	}
	if fs.Changed("diarize") {
		cfg.Transcription.Diarize = flags.diarize
	}
	if fs.Changed("concurrency") {
		cfg.Dispatch.MaxConcurrent = flags.concurrency
	}
	if fs.Changed("rate") {
		cfg.Dispatch.RatePerSecond = flags.rate
	}
	if fs.Changed("workers") {
		cfg.Transcription.Workers = flags.workers
	}
}

func printBatch(out io.Writer, result pipeline.BatchResult, color bool) {
	rows := make([][]string, 0, len(result.Files))
	for _, f := range result.Files {
		rows = append(rows, []string{
			filepath.Base(f.Path),
			statusLabel(f.Status, color),
			segmentsColumn(f),
			formatElapsed(f.FinishedAt.Sub(f.StartedAt)),
			resultDetail(f),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Status", "Segments", "Time", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))

	s := result.Summary()
	fmt.Fprintf(out, "%d transcribed, %d skipped, %d failed", s.Completed, s.Skipped, s.Failed)
	if s.Interrupted > 0 {
		fmt.Fprintf(out, ", %d interrupted", s.Interrupted)
	}
	fmt.Fprintf(out, " in %s\n", formatElapsed(result.Duration()))
}

func segmentsColumn(f pipeline.FileResult) string {
	if f.SegmentsPlanned == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", f.SegmentsOK, f.SegmentsPlanned)
}

func resultDetail(f pipeline.FileResult) string {
	switch {
	case f.Err != nil:
		return firstLine(f.Err.Error())
	case f.Status == history.StatusSkipped:
		return string(f.Decision)
	case len(f.Missing) > 0:
		return fmt.Sprintf("missing segments %s", joinInts(f.Missing))
	case f.Written.Transcript != "":
		return filepath.Base(f.Written.Transcript)
	default:
		return ""
	}
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
