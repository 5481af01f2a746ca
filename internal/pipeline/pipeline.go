package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"murmur/internal/dispatch"
	"murmur/internal/history"
	"murmur/internal/ledger"
	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/output"
	"murmur/internal/provider"
	"murmur/internal/segment"
	"murmur/internal/services"
)

// Tracker is the dedup ledger surface the pipeline needs.
type Tracker interface {
	Check(file ledger.SourceFile) (bool, ledger.Decision, error)
	MarkProcessed(file ledger.SourceFile) (bool, error)
}

// MediaTool cuts and extracts audio.
type MediaTool interface {
	segment.Extractor
	ExtractAudioTrack(ctx context.Context, source string, audioIndex int, dest string) error
}

// Recorder stores per-file outcomes.
type Recorder interface {
	Record(ctx context.Context, outcome history.Outcome) (int64, error)
}

// Dependencies are the collaborators a Pipeline drives. History, Notifier
// and Engine are optional.
type Dependencies struct {
	Tracker     Tracker
	Transcriber provider.Transcriber
	Media       MediaTool
	Prober      segment.Prober
	History     Recorder
	Notifier    notifications.Service
	// Engine overrides the dispatch engine built from Options.Dispatch.
	Engine *dispatch.Engine
}

// Pipeline transcribes sources end to end.
type Pipeline struct {
	opts     Options
	tracker  Tracker
	media    MediaTool
	prober   segment.Prober
	adapter  *segment.Adapter
	engine   *dispatch.Engine
	writer   *output.Writer
	history  Recorder
	notifier notifications.Service
	inflight *hashLocks
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// New constructs a Pipeline.
func New(opts Options, deps Dependencies, logger *slog.Logger) (*Pipeline, error) {
	var missing []error
	if deps.Tracker == nil {
		missing = append(missing, errors.New("tracker"))
	}
	if deps.Transcriber == nil && deps.Engine == nil {
		missing = append(missing, errors.New("transcriber"))
	}
	if deps.Media == nil {
		missing = append(missing, errors.New("media tool"))
	}
	if deps.Prober == nil {
		missing = append(missing, errors.New("prober"))
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "missing dependencies", errors.Join(missing...))
	}

	opts = opts.withDefaults()
	logger = logging.NewComponentLogger(logger, "pipeline")
	engine := deps.Engine
	if engine == nil {
		engine = dispatch.New(deps.Transcriber, opts.Dispatch, logger)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Pipeline{
		opts:     opts,
		tracker:  deps.Tracker,
		media:    deps.Media,
		prober:   deps.Prober,
		adapter:  segment.NewAdapter(deps.Media, deps.Prober, opts.Segment, logger),
		engine:   engine,
		writer:   output.NewWriter(deps.Tracker, logger),
		history:  deps.History,
		notifier: notifier,
		inflight: newHashLocks(),
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}, nil
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}
