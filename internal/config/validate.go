package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateSegment(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if c.Watch.PollInterval <= 0 {
		return errors.New("watch.poll_interval must be positive")
	}
	return nil
}

// RequireProvider checks the settings needed to talk to the transcription
// provider. Commands that only inspect local state skip it.
func (c *Config) RequireProvider() error {
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("provider.api_key is required. Set DEEPGRAM_API_KEY env var or edit %s (create with 'murmur config init')", defaultPath)
	}
	return nil
}

// RequireDirectory checks that dir exists and is a directory.
func RequireDirectory(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("no directory given and paths.default_directory is not set")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.Workers <= 0 {
		return errors.New("transcription.workers must be positive")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	d := c.Dispatch
	if d.MaxConcurrent <= 0 {
		return errors.New("dispatch.max_concurrent must be positive")
	}
	if d.RatePerSecond <= 0 {
		return errors.New("dispatch.rate_per_second must be positive")
	}
	if d.RateBurst <= 0 {
		return errors.New("dispatch.rate_burst must be positive")
	}
	if d.MaxAttempts <= 0 {
		return errors.New("dispatch.max_attempts must be positive")
	}
	if d.AttemptTimeout <= 0 {
		return errors.New("dispatch.attempt_timeout must be positive")
	}
	if d.InitialBackoff <= 0 || d.MaxBackoff <= 0 {
		return errors.New("dispatch backoff values must be positive")
	}
	if d.MaxBackoff < d.InitialBackoff {
		return errors.New("dispatch.max_backoff must be >= dispatch.initial_backoff")
	}
	return nil
}

func (c *Config) validateSegment() error {
	if c.Segment.LengthSeconds <= 0 {
		return errors.New("segment.length_seconds must be positive")
	}
	if c.Segment.MaxConsecutiveInvalid <= 0 {
		return errors.New("segment.max_consecutive_invalid must be positive")
	}
	if c.Segment.MinBytes < 0 {
		return errors.New("segment.min_bytes must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	if c.Notifications.BatchMinFiles < 1 {
		return errors.New("notifications.batch_min_files must be >= 1")
	}
	return nil
}
