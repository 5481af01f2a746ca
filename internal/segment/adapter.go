package segment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"murmur/internal/fileutil"
	"murmur/internal/logging"
	"murmur/internal/services"
)

// Extractor cuts a time window of a source into a WAV file.
type Extractor interface {
	ExtractRange(ctx context.Context, source string, start, length float64, dest string) error
}

// Source names the file a plan is cut from.
type Source struct {
	// Path is the user's file. Chunk names derive from it and Hash so two
	// sources never share a chunk file.
	Path string
	Hash string
	// Audio is the file ffmpeg reads when it differs from Path, such as the
	// audio track extracted from a video.
	Audio string
}

func (s Source) input() string {
	if s.Audio != "" {
		return s.Audio
	}
	return s.Path
}

// Artifact is a materialized segment file.
type Artifact struct {
	Spec  Spec
	Path  string
	Valid bool
}

// Outcome summarizes one Materialize call.
type Outcome struct {
	// Artifacts holds the valid segments in index order.
	Artifacts []Artifact
	// Invalid lists the indexes whose extraction failed validation.
	Invalid []int
	// Stopped is set when generation ended early on the consecutive-invalid limit.
	Stopped bool
	Planned int
}

// Paths returns the artifact file paths in index order.
func (o Outcome) Paths() []string {
	paths := make([]string, 0, len(o.Artifacts))
	for _, a := range o.Artifacts {
		paths = append(paths, a.Path)
	}
	return paths
}

// Settings holds the adapter's validation policy.
type Settings struct {
	MaxConsecutiveInvalid int
	MinBytes              int64
}

// Adapter materializes segment plans into validated chunk files.
type Adapter struct {
	extractor Extractor
	prober    Prober
	settings  Settings
	logger    *slog.Logger
}

// NewAdapter constructs an adapter.
func NewAdapter(extractor Extractor, prober Prober, settings Settings, logger *slog.Logger) *Adapter {
	if settings.MaxConsecutiveInvalid <= 0 {
		settings.MaxConsecutiveInvalid = 3
	}
	if settings.MinBytes <= 0 {
		settings.MinBytes = 1024
	}
	return &Adapter{
		extractor: extractor,
		prober:    prober,
		settings:  settings,
		logger:    logging.NewComponentLogger(logger, "segmenter"),
	}
}

// Materialize extracts and validates every window of plan for source. It
// returns an error wrapping services.ErrExtract only when no valid segment was
// produced, or the context error when cancelled. Valid artifacts produced
// before a cancellation are still returned so the caller can remove them.
func (a *Adapter) Materialize(ctx context.Context, source Source, plan []Spec) (Outcome, error) {
	out := Outcome{Planned: len(plan)}
	logger := logging.WithContext(ctx, a.logger)
	consecutive := 0
	input := source.input()

	for _, spec := range plan {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dest := ChunkPath(source.Path, source.Hash, spec.Index)
		err := a.extractor.ExtractRange(ctx, input, spec.Start, spec.Length, dest)
		if err == nil {
			err = a.validate(ctx, dest)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				_ = fileutil.RemoveIfExists(dest)
				return out, ctxErr
			}
			consecutive++
			out.Invalid = append(out.Invalid, spec.Index)
			if rmErr := fileutil.RemoveIfExists(dest); rmErr != nil {
				logger.Debug("invalid segment cleanup failed", logging.String("path", dest), logging.Error(rmErr))
			}
			logging.WarnWithContext(logger, "segment discarded", "segment_invalid",
				logging.Int(logging.FieldSegment, spec.Index),
				logging.Int("consecutive_invalid", consecutive),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the source file for corruption past this offset"),
				logging.String(logging.FieldImpact, "this window is missing from the transcript"),
			)
			if consecutive >= a.settings.MaxConsecutiveInvalid {
				out.Stopped = true
				logging.WarnWithContext(logger, "segment generation stopped early", "segment_generation_stopped",
					logging.Int("consecutive_invalid", consecutive),
					logging.Int("valid_segments", len(out.Artifacts)),
					logging.Int("planned_segments", len(plan)),
					logging.String(logging.FieldErrorHint, "duration metadata may be wrong or the file is truncated"),
					logging.String(logging.FieldImpact, "remaining windows were not transcribed"),
				)
				break
			}
			continue
		}
		consecutive = 0
		out.Artifacts = append(out.Artifacts, Artifact{Spec: spec, Path: dest, Valid: true})
		logger.Debug("segment materialized",
			logging.Int(logging.FieldSegment, spec.Index),
			logging.Float64("start_seconds", spec.Start),
			logging.Float64("length_seconds", spec.Length),
		)
	}

	if len(out.Artifacts) == 0 {
		return out, services.Wrap(services.ErrExtract, "segment", "materialize",
			fmt.Sprintf("no valid segments out of %d planned", len(plan)), nil)
	}
	return out, nil
}

func (a *Adapter) validate(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrExtract, "segment", "validate", "stat segment", err)
	}
	if info.Size() < a.settings.MinBytes {
		return services.Wrap(services.ErrExtract, "segment", "validate",
			fmt.Sprintf("segment too small (%d bytes)", info.Size()), nil)
	}
	result, err := a.prober.Inspect(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrExtract, "segment", "validate", "probe segment", err)
	}
	if !result.HasPlayableAudio() {
		return services.Wrap(services.ErrExtract, "segment", "validate", "segment has no decodable audio", nil)
	}
	return nil
}

var chunkNamePattern = regexp.MustCompile(`_chunk_\d+\.wav$`)

// ChunkPath returns the segment file path for index next to source:
// "<stem>_<hash8>_chunk_<index>.wav". An empty hash drops the tag.
func ChunkPath(source, hash string, index int) string {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if tag := HashTag(hash); tag != "" {
		stem += "_" + tag
	}
	return filepath.Join(dir, stem+"_chunk_"+strconv.Itoa(index)+".wav")
}

// HashTag is the short content-hash prefix used in artifact names.
func HashTag(hash string) string {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// IsChunkName reports whether name looks like a segment file produced by
// ChunkPath, with or without the hash tag.
func IsChunkName(name string) bool {
	return chunkNamePattern.MatchString(strings.ToLower(filepath.Base(name)))
}
