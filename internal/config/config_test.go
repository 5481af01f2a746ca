package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"murmur/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "murmur")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LedgerPath() != filepath.Join(wantState, "processed_files.json") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Fatalf("expected provider key from env, got %q", cfg.Provider.APIKey)
	}
	if cfg.Provider.Model != "nova-2" {
		t.Fatalf("unexpected model: %q", cfg.Provider.Model)
	}
	if cfg.Transcription.Language != "auto" {
		t.Fatalf("unexpected language: %q", cfg.Transcription.Language)
	}
	if cfg.Dispatch.MaxConcurrent != 5 || cfg.Dispatch.RatePerSecond != 5 || cfg.Dispatch.MaxAttempts != 3 {
		t.Fatalf("unexpected dispatch defaults: %+v", cfg.Dispatch)
	}
	if cfg.Dispatch.AttemptTimeout != 600 {
		t.Fatalf("unexpected attempt timeout: %d", cfg.Dispatch.AttemptTimeout)
	}
	if cfg.Segment.LengthSeconds != 900 || cfg.Segment.MaxConsecutiveInvalid != 3 {
		t.Fatalf("unexpected segment defaults: %+v", cfg.Segment)
	}
	if cfg.Ledger.AdoptLegacyTranscripts {
		t.Fatal("expected legacy adoption disabled by default")
	}
	if err := cfg.RequireProvider(); err != nil {
		t.Fatalf("RequireProvider failed: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadFallsBackToLegacyEnvKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEEPGRAM_API_KEY", "")
	os.Unsetenv("DEEPGRAM_API_KEY")
	t.Setenv("DG_API_KEY", "legacy")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider.APIKey != "legacy" {
		t.Fatalf("expected DG_API_KEY fallback, got %q", cfg.Provider.APIKey)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "murmur.toml")

	type payload struct {
		Provider struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"provider"`
		Transcription struct {
			Language string `toml:"language"`
			Workers  int    `toml:"workers"`
		} `toml:"transcription"`
		Dispatch struct {
			MaxConcurrent int     `toml:"max_concurrent"`
			RatePerSecond float64 `toml:"rate_per_second"`
		} `toml:"dispatch"`
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.Provider.APIKey = "abc123"
	custom.Provider.Model = "nova-3"
	custom.Transcription.Language = "pt-br"
	custom.Transcription.Workers = 4
	custom.Dispatch.MaxConcurrent = 8
	custom.Dispatch.RatePerSecond = 2.5
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Provider.APIKey != "abc123" || cfg.Provider.Model != "nova-3" {
		t.Fatalf("unexpected provider: %+v", cfg.Provider)
	}
	if cfg.Transcription.Language != "pt-BR" {
		t.Fatalf("expected canonical language, got %q", cfg.Transcription.Language)
	}
	if cfg.Transcription.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Transcription.Workers)
	}
	if cfg.Dispatch.MaxConcurrent != 8 || cfg.Dispatch.RatePerSecond != 2.5 {
		t.Fatalf("unexpected dispatch: %+v", cfg.Dispatch)
	}
	if cfg.Dispatch.MaxAttempts != 3 {
		t.Fatalf("expected untouched defaults to survive, got %d", cfg.Dispatch.MaxAttempts)
	}
	if cfg.Paths.StateDir != filepath.Join(tempDir, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"concurrency", func(c *config.Config) { c.Dispatch.MaxConcurrent = 0 }, "dispatch.max_concurrent"},
		{"rate", func(c *config.Config) { c.Dispatch.RatePerSecond = 0 }, "dispatch.rate_per_second"},
		{"attempts", func(c *config.Config) { c.Dispatch.MaxAttempts = 0 }, "dispatch.max_attempts"},
		{"backoff", func(c *config.Config) { c.Dispatch.MaxBackoff = 1; c.Dispatch.InitialBackoff = 5 }, "dispatch.max_backoff"},
		{"segment", func(c *config.Config) { c.Segment.LengthSeconds = 0 }, "segment.length_seconds"},
		{"workers", func(c *config.Config) { c.Transcription.Workers = 0 }, "transcription.workers"},
		{"watch", func(c *config.Config) { c.Watch.PollInterval = 0 }, "watch.poll_interval"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadRejectsUnknownLanguage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[transcription]\nlanguage = \"not a language\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid language")
	}
}

func TestRequireProviderWithoutKey(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequireProvider()
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if !strings.Contains(err.Error(), "DEEPGRAM_API_KEY") {
		t.Fatalf("expected env hint in error, got %q", err.Error())
	}
}

func TestRequireDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := config.RequireDirectory(dir); err != nil {
		t.Fatalf("expected directory to pass: %v", err)
	}
	if err := config.RequireDirectory(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := config.RequireDirectory(file); err == nil {
		t.Fatal("expected error for regular file")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEEPGRAM_API_KEY", "k")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Segment.LengthSeconds != 900 {
		t.Fatalf("unexpected sample segment length: %d", cfg.Segment.LengthSeconds)
	}

	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(encoded), "api_key = 'k'") || strings.Contains(string(encoded), "api_key = \"k\"") {
		t.Fatalf("expected api key to be masked, got:\n%s", encoded)
	}
}
