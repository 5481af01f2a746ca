package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"murmur/internal/history"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/scan"
)

// ErrAlreadyRunning is returned by Run when another watcher holds the lock.
var ErrAlreadyRunning = errors.New("another murmur watcher is already running")

// Processor transcribes a batch of files.
type Processor interface {
	ProcessBatch(ctx context.Context, paths []string) pipeline.BatchResult
}

// Config describes what to watch.
type Config struct {
	Dir       string
	Recursive bool
	Interval  time.Duration
	LockPath  string
}

type fileState struct {
	size    int64
	modTime time.Time
}

// Daemon polls a directory and transcribes new files.
type Daemon struct {
	cfg       Config
	processor Processor
	logger    *slog.Logger
	lock      *flock.Flock
	list      func(dir string, recursive bool) ([]string, error)
	stat      func(path string) (os.FileInfo, error)

	// observed holds the size seen on the previous poll for files not yet ready.
	observed map[string]fileState
	// handled holds files already run through the pipeline, keyed to the
	// state they had at the time. A failed file is retried only once it
	// changes or the watcher restarts.
	handled map[string]fileState
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithLister overrides directory scanning (for tests).
func WithLister(list func(dir string, recursive bool) ([]string, error)) Option {
	return func(d *Daemon) {
		if list != nil {
			d.list = list
		}
	}
}

// WithStat overrides file stat (for tests).
func WithStat(stat func(path string) (os.FileInfo, error)) Option {
	return func(d *Daemon) {
		if stat != nil {
			d.stat = stat
		}
	}
}

// New constructs a watcher.
func New(cfg Config, processor Processor, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if processor == nil {
		return nil, errors.New("daemon requires a processor")
	}
	if cfg.Dir == "" {
		return nil, errors.New("daemon requires a directory to watch")
	}
	if cfg.LockPath == "" {
		return nil, errors.New("daemon requires a lock path")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch directory: %w", err)
	}
	cfg.Dir = dir
	d := &Daemon{
		cfg:       cfg,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "watch"),
		lock:      flock.New(cfg.LockPath),
		list:      scan.MediaFiles,
		stat:      os.Stat,
		observed:  make(map[string]fileState),
		handled:   make(map[string]fileState),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run holds the watch lock and polls until ctx is cancelled. It returns nil
// on cancellation and ErrAlreadyRunning when the lock is taken.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	d.logger.Info("watch started",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String("dir", d.cfg.Dir),
		logging.Bool("recursive", d.cfg.Recursive),
		logging.Duration("interval", d.cfg.Interval),
		logging.String("lock", d.cfg.LockPath))

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := d.Poll(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "watch poll failed", "watch_poll_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the watched directory exists and is readable"),
				logging.String(logging.FieldImpact, "new files are not picked up until the next successful poll"),
			)
		}
		select {
		case <-ctx.Done():
			d.logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stopped"))
			return nil
		case <-ticker.C:
		}
	}
}

// Poll scans once and processes every file whose size matched the previous
// poll. It returns the processed paths.
func (d *Daemon) Poll(ctx context.Context) ([]string, error) {
	files, err := d.list(d.cfg.Dir, d.cfg.Recursive)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(files))
	var ready []string
	for _, path := range files {
		present[path] = struct{}{}
		info, err := d.stat(path)
		if err != nil {
			delete(d.observed, path)
			continue
		}
		state := fileState{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := d.handled[path]; ok && prev == state {
			continue
		}
		delete(d.handled, path)
		if prev, ok := d.observed[path]; ok && prev == state {
			ready = append(ready, path)
			continue
		}
		d.observed[path] = state
	}
	for path := range d.observed {
		if _, ok := present[path]; !ok {
			delete(d.observed, path)
		}
	}
	for path := range d.handled {
		if _, ok := present[path]; !ok {
			delete(d.handled, path)
		}
	}

	if len(ready) == 0 {
		return nil, nil
	}
	d.logger.Info("stable files ready",
		logging.String(logging.FieldEventType, "watch_files_ready"),
		logging.Int("files", len(ready)))

	batch := d.processor.ProcessBatch(ctx, ready)
	for i, res := range batch.Files {
		if i >= len(ready) || res.Status == history.StatusInterrupted {
			continue
		}
		path := ready[i]
		d.handled[path] = d.observed[path]
		delete(d.observed, path)
	}
	return ready, nil
}
