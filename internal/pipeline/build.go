package pipeline

import (
	"errors"
	"log/slog"

	"murmur/internal/config"
	"murmur/internal/history"
	"murmur/internal/ledger"
	"murmur/internal/logging"
	"murmur/internal/media/ffmpeg"
	"murmur/internal/notifications"
	"murmur/internal/provider/deepgram"
	"murmur/internal/segment"
)

// Runtime is a Pipeline wired to the real collaborators described by a
// config. Close releases the history store.
type Runtime struct {
	*Pipeline
	Ledger  *ledger.Ledger
	History *history.Store
}

// Close releases resources held by the runtime.
func (r *Runtime) Close() error {
	if r == nil || r.History == nil {
		return nil
	}
	return r.History.Close()
}

// Build wires a Pipeline from cfg: the JSON ledger, the Deepgram client,
// ffmpeg and ffprobe, the sqlite history store, and ntfy notifications.
// A history store that cannot be opened is logged and skipped.
func Build(cfg *config.Config, opts Options, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	led := ledger.Open(cfg.LedgerPath(), ledger.Options{
		AdoptLegacyTranscripts: cfg.Ledger.AdoptLegacyTranscripts,
	}, logger)

	rt := &Runtime{Ledger: led}
	deps := Dependencies{
		Tracker: led,
		Transcriber: deepgram.NewClient(deepgram.Config{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			Model:       cfg.Provider.Model,
			SmartFormat: cfg.Provider.SmartFormat,
		}),
		Media:    ffmpeg.New(cfg.Paths.FFmpegBinary),
		Prober:   segment.FFprobe(cfg.Paths.FFprobeBinary),
		Notifier: notifications.NewService(cfg),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "history store unavailable", "history_open_failed",
				logging.String("path", cfg.HistoryPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history.path or set history.enabled = false"),
				logging.String(logging.FieldImpact, "run outcomes will not be recorded"),
			)
		} else {
			rt.History = store
			deps.History = store
		}
	}

	p, err := New(opts, deps, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Pipeline = p
	return rt, nil
}
