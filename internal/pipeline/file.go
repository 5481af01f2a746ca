package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"murmur/internal/dispatch"
	"murmur/internal/fileutil"
	"murmur/internal/history"
	"murmur/internal/ledger"
	"murmur/internal/logging"
	"murmur/internal/output"
	"murmur/internal/scan"
	"murmur/internal/segment"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// ProcessFile runs one source through the whole pipeline. It never panics on
// a file-level failure; the error is carried in the result.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) FileResult {
	ctx = services.WithSource(ctx, path)
	logger := logging.WithContext(ctx, p.logger)
	res := FileResult{Path: path, StartedAt: p.now()}

	err := p.process(ctx, logger, &res)
	res.FinishedAt = p.now()
	if err != nil {
		res.Err = err
		res.Status = services.FailureStatus(err)
		if res.Status == history.StatusInterrupted {
			logger.Info("file interrupted",
				logging.String(logging.FieldEventType, "file_interrupted"),
				logging.Int("segments_ok", res.SegmentsOK))
		} else {
			logging.ErrorWithContext(logger, "file failed", "file_failed",
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, failureHint(err)),
				logging.String(logging.FieldImpact, "no transcript was recorded for this file"),
			)
		}
	}
	return res
}

func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, res *FileResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	source, err := ledger.NewSourceFile(res.Path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "hash source", res.Path, err)
	}
	res.Path = source.Path
	res.Hash = source.Hash

	unlock, err := p.inflight.acquire(ctx, source.Hash)
	if err != nil {
		return err
	}
	defer unlock()

	if !p.opts.Force {
		done, decision, err := p.tracker.Check(source)
		res.Decision = decision
		if err != nil {
			logging.WarnWithContext(logger, "adopted transcript not persisted", "ledger_adopt_persist_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the ledger path and permissions"),
				logging.String(logging.FieldImpact, "the transcript will be adopted again next run"),
			)
		}
		if done {
			res.Status = history.StatusSkipped
			logger.Info("file skipped",
				logging.String(logging.FieldEventType, "file_skipped"),
				logging.String("decision", string(decision)))
			return nil
		}
	}

	logger.Info("file started",
		logging.String(logging.FieldEventType, "file_started"),
		logging.String("hash", source.Hash),
		logging.Int64("size_bytes", source.Size))

	var (
		intermediate string
		chunks       []string
		keep         bool
	)
	defer func() {
		if keep {
			return
		}
		_ = output.Cleanup(ctx, p.logger, append(slices.Clone(chunks), intermediate))
	}()

	audio := source.Path
	if scan.IsVideo(source.Path) {
		intermediate, err = p.extractAudio(ctx, source)
		if err != nil {
			return err
		}
		audio = intermediate
	}

	duration, probed, err := segment.Probe(ctx, p.prober, audio)
	if err != nil {
		return err
	}
	plan, err := segment.Plan(duration, p.opts.SegmentSeconds)
	if err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "plan", audio, err)
	}
	res.SegmentsPlanned = len(plan)
	logger.Debug("segment plan ready",
		logging.Float64("duration_seconds", duration),
		logging.Int("segments", len(plan)))

	materialized, err := p.adapter.Materialize(ctx, segment.Source{
		Path:  source.Path,
		Hash:  source.Hash,
		Audio: audio,
	}, plan)
	chunks = materialized.Paths()
	res.SegmentsValid = len(materialized.Artifacts)
	if err != nil {
		res.Missing = indexes(plan)
		return err
	}

	results := p.engine.TranscribeSegments(ctx, materialized.Artifacts, dispatch.Options{
		Language: p.opts.Language,
		Diarize:  p.opts.Diarize,
		MimeType: "audio/wav",
	})
	if err := ctx.Err(); err != nil {
		res.SegmentsOK = countOK(results)
		return err
	}

	combined, err := transcript.Combine(results)
	res.SegmentsOK = combined.Succeeded
	res.Missing = missing(plan, results)
	if err != nil {
		return services.Wrap(services.ErrProvider, "pipeline", "combine",
			fmt.Sprintf("all %d segments failed", len(results)), errors.Join(err, firstErr(results)))
	}
	combined.Segments = len(plan)
	combined.Failed = res.Missing
	if combined.Duration <= 0 {
		combined.Duration = duration
	}
	if combined.Channels == 0 {
		combined.Channels = probed.Channels()
	}

	written, err := p.writer.Write(ctx, source, combined)
	if err != nil {
		keep = errors.Is(err, services.ErrWrite)
		if keep {
			logger.Info("segment artifacts kept for inspection",
				logging.String(logging.FieldEventType, "artifacts_kept"),
				logging.Int("artifacts", len(chunks)))
		}
		return err
	}
	res.Written = written

	keep = true
	if err := p.writer.Finalize(ctx, source, chunks, intermediate); err != nil && errors.Is(err, services.ErrLedger) {
		return err
	}

	res.Status = history.StatusCompleted
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "file_completed"),
		logging.String("transcript", written.Transcript),
		logging.Int("segments_ok", res.SegmentsOK),
		logging.Int("segments_planned", res.SegmentsPlanned),
	}
	if !combined.Complete() {
		logging.WarnWithContext(logger, "file completed with missing segments", "file_completed_partial",
			append(attrs,
				logging.Alert("partial_transcript"),
				logging.Any("missing_segments", res.Missing),
				logging.String(logging.FieldErrorHint, "run with --force later to retry the whole file"),
				logging.String(logging.FieldImpact, "parts of the recording are absent from the transcript"),
			)...)
		return nil
	}
	logger.Info("file completed", logging.Args(attrs...)...)
	return nil
}

// extractAudio writes the first audio track of the video to a hidden,
// hash-tagged WAV beside it.
func (p *Pipeline) extractAudio(ctx context.Context, source ledger.SourceFile) (string, error) {
	video := source.Path
	result, err := p.prober.Inspect(ctx, video)
	if err != nil {
		return "", services.Wrap(services.ErrProbe, "pipeline", "inspect video", video, err)
	}
	index := result.FirstAudioIndex()
	if index < 0 {
		return "", services.Wrap(services.ErrProbe, "pipeline", "inspect video", "no audio track", nil)
	}
	dest := scan.ExtractedAudioPath(video, source.Hash)
	if err := p.media.ExtractAudioTrack(ctx, video, index, dest); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrExtract, "pipeline", "extract audio", video, err)
	}
	return dest, nil
}

func indexes(plan []segment.Spec) []int {
	out := make([]int, 0, len(plan))
	for _, s := range plan {
		out = append(out, s.Index)
	}
	return out
}

// missing lists planned windows without a successful result, which covers
// invalid segments, windows skipped after an early stop, and dispatch
// failures.
func missing(plan []segment.Spec, results []transcript.SegmentResult) []int {
	ok := make(map[int]bool, len(results))
	for _, r := range results {
		if r.OK() {
			ok[r.Index] = true
		}
	}
	var out []int
	for _, s := range plan {
		if !ok[s.Index] {
			out = append(out, s.Index)
		}
	}
	return out
}

func countOK(results []transcript.SegmentResult) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}

func firstErr(results []transcript.SegmentResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrProbe):
		return "check that ffprobe can read the file and that it has an audio track"
	case errors.Is(err, services.ErrExtract):
		return "check that ffmpeg can decode the file"
	case errors.Is(err, services.ErrProvider), errors.Is(err, services.ErrTimeout):
		return "check provider status, API key, and quota"
	case errors.Is(err, services.ErrWrite):
		return "check free space and permissions in the source directory"
	case errors.Is(err, services.ErrLedger):
		return "check the ledger path; the transcript will be adopted next run"
	default:
		return "check logs for details"
	}
}
