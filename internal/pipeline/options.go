package pipeline

import (
	"time"

	"murmur/internal/config"
	"murmur/internal/dispatch"
	"murmur/internal/language"
	"murmur/internal/segment"
	"murmur/internal/services"
)

// Options is the per-run configuration bundle.
type Options struct {
	Language       string
	Diarize        bool
	SegmentSeconds float64
	Workers        int
	// Force ignores the ledger and transcribes every file again.
	Force    bool
	Dispatch dispatch.Settings
	Segment  segment.Settings
}

// OptionsFromConfig builds Options from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "options", "config not loaded", nil)
	}
	lang, err := language.Normalize(cfg.Transcription.Language)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "options", "transcription.language", err)
	}
	d := cfg.Dispatch
	return Options{
		Language:       lang,
		Diarize:        cfg.Transcription.Diarize,
		SegmentSeconds: float64(cfg.Segment.LengthSeconds),
		Workers:        cfg.Transcription.Workers,
		Dispatch: dispatch.Settings{
			MaxConcurrent:  d.MaxConcurrent,
			RatePerSecond:  d.RatePerSecond,
			RateBurst:      d.RateBurst,
			MaxAttempts:    d.MaxAttempts,
			AttemptTimeout: time.Duration(d.AttemptTimeout) * time.Second,
			InitialBackoff: time.Duration(d.InitialBackoff) * time.Second,
			MaxBackoff:     time.Duration(d.MaxBackoff) * time.Second,
		},
		Segment: segment.Settings{
			MaxConsecutiveInvalid: cfg.Segment.MaxConsecutiveInvalid,
			MinBytes:              cfg.Segment.MinBytes,
		},
	}, nil
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.SegmentSeconds <= 0 {
		o.SegmentSeconds = 900
	}
	if o.Language == "" {
		o.Language = language.Auto
	}
	return o
}
