package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"murmur/internal/fileutil"
	"murmur/internal/ledger"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// Marker records a source as processed.
type Marker interface {
	MarkProcessed(file ledger.SourceFile) (bool, error)
}

// Written describes the files produced by Write.
type Written struct {
	Transcript string
	Speakers   string
}

// Files returns the written paths.
func (w Written) Files() []string {
	var out []string
	for _, p := range []string{w.Transcript, w.Speakers} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Writer writes transcripts and finalizes sources.
type Writer struct {
	marker Marker
	logger *slog.Logger
	rename func(oldpath, newpath string) error
}

// Option customizes a Writer.
type Option func(*Writer)

// WithRename overrides the rename used to publish staged files (for tests).
func WithRename(rename func(oldpath, newpath string) error) Option {
	return func(w *Writer) {
		if rename != nil {
			w.rename = rename
		}
	}
}

// NewWriter constructs a Writer.
func NewWriter(marker Marker, logger *slog.Logger, opts ...Option) *Writer {
	w := &Writer{
		marker: marker,
		logger: logging.NewComponentLogger(logger, "output"),
		rename: os.Rename,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type document struct {
	final string
	data  []byte
}

type staged struct {
	tmp   string
	final string
}

// Write publishes the transcript files for source. Every failure wraps
// services.ErrWrite and leaves no file from this call behind.
func (w *Writer) Write(ctx context.Context, source ledger.SourceFile, t transcript.Transcript) (Written, error) {
	if err := ctx.Err(); err != nil {
		return Written{}, err
	}
	plainPath, speakersPath := transcript.Paths(source.Path)
	meta := transcript.MetadataFor(source.Path, source.Hash, t)

	docs := []document{{final: plainPath, data: transcript.Render(meta, t.Text)}}
	if t.HasSpeakers() {
		docs = append(docs, document{final: speakersPath, data: transcript.RenderSpeakers(meta, t.Paragraphs)})
	}

	var pending []staged
	var published []string
	fail := func(op string, err error) (Written, error) {
		for _, s := range pending {
			_ = os.Remove(s.tmp)
		}
		for _, p := range published {
			_ = os.Remove(p)
		}
		return Written{}, services.Wrap(services.ErrWrite, "output", op, source.Path, err)
	}

	for _, doc := range docs {
		tmp, err := stage(doc.final, doc.data)
		if err != nil {
			return fail("stage", err)
		}
		pending = append(pending, staged{tmp: tmp, final: doc.final})
	}
	for len(pending) > 0 {
		next := pending[0]
		if err := w.rename(next.tmp, next.final); err != nil {
			return fail("publish", err)
		}
		pending = pending[1:]
		published = append(published, next.final)
	}

	written := Written{Transcript: plainPath}
	if t.HasSpeakers() {
		written.Speakers = speakersPath
	} else if fileutil.Exists(speakersPath) {
		if err := os.Remove(speakersPath); err != nil {
			w.logger.Debug("stale speaker transcript not removed",
				logging.String("path", speakersPath), logging.Error(err))
		}
	}

	logging.WithContext(ctx, w.logger).Info("transcript written",
		logging.String(logging.FieldEventType, "transcript_written"),
		logging.String("transcript", written.Transcript),
		logging.Bool("speakers", written.Speakers != ""),
		logging.Int("segments_ok", t.Succeeded),
		logging.Int("segments_total", t.Segments))
	return written, nil
}

func stage(final string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(final), "."+filepath.Base(final)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Finalize marks source processed and removes the segment artifacts plus any
// intermediate whole-file audio. Call it only after a successful Write. A
// ledger failure is returned (wrapping services.ErrLedger) after cleanup has
// still run; the transcript records the source hash, so a later run adopts
// it instead of transcribing again.
func (w *Writer) Finalize(ctx context.Context, source ledger.SourceFile, artifacts []string, intermediate string) error {
	var markErr error
	if w.marker != nil {
		if _, err := w.marker.MarkProcessed(source); err != nil {
			markErr = services.Wrap(services.ErrLedger, "output", "mark processed", source.Path, err)
		}
	}
	paths := append([]string(nil), artifacts...)
	if intermediate != "" && intermediate != source.Path {
		paths = append(paths, intermediate)
	}
	cleanupErr := cleanup(ctx, w.logger, paths)
	return errors.Join(markErr, cleanupErr)
}

// Cleanup removes temporary files, ignoring ones that are already gone.
// Failures are logged and joined into the returned error.
func Cleanup(ctx context.Context, logger *slog.Logger, paths []string) error {
	return cleanup(ctx, logging.NewComponentLogger(logger, "output"), paths)
}

func cleanup(ctx context.Context, logger *slog.Logger, paths []string) error {
	logger = logging.WithContext(ctx, logger)
	var errs []error
	removed := 0
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := fileutil.RemoveIfExists(path); err != nil {
			logging.WarnWithContext(logger, "temporary file not removed", "cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the file manually"),
				logging.String(logging.FieldImpact, "a temporary audio file remains on disk"),
			)
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Debug("temporary files removed", logging.Int("count", removed))
	}
	return errors.Join(errs...)
}
