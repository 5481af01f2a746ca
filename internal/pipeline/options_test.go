package pipeline

import (
	"errors"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/services"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Language = "pt-br"
	cfg.Transcription.Diarize = true
	cfg.Dispatch.AttemptTimeout = 120

	opts, err := OptionsFromConfig(&cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Language != "pt-BR" || !opts.Diarize {
		t.Fatalf("unexpected transcription options %+v", opts)
	}
	if opts.SegmentSeconds != 900 || opts.Workers != 2 {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	if opts.Dispatch.AttemptTimeout != 2*time.Minute || opts.Dispatch.MaxConcurrent != 5 || opts.Dispatch.RateBurst != 1 {
		t.Fatalf("unexpected dispatch settings %+v", opts.Dispatch)
	}
	if opts.Segment.MaxConsecutiveInvalid != 3 || opts.Segment.MinBytes != 1024 {
		t.Fatalf("unexpected segment settings %+v", opts.Segment)
	}
}

func TestOptionsFromConfigRejectsBadLanguage(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Language = "not a language!"
	if _, err := OptionsFromConfig(&cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
