package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/config"
	"murmur/internal/services"
)

func stubBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Token good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckProvider(context.Background(), srv.URL, "good-key"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckProvider(context.Background(), srv.URL, "bad-key"); result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result := CheckProvider(context.Background(), "", "key"); result.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestCheckAPIKey(t *testing.T) {
	if CheckAPIKey("  ").Passed {
		t.Fatal("blank key should fail")
	}
	if r := CheckAPIKey("secret"); !r.Passed || r.Detail == "secret" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, "", false); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_AllPassing(t *testing.T) {
	bin := t.TempDir()
	cfg := config.Default()
	cfg.Paths.FFmpegBinary = stubBinary(t, bin, "ffmpeg")
	cfg.Paths.FFprobeBinary = stubBinary(t, bin, "ffprobe")
	cfg.Paths.StateDir = t.TempDir()
	cfg.Provider.APIKey = "key"

	results := RunAll(context.Background(), &cfg, t.TempDir(), false)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRequire(t *testing.T) {
	bin := t.TempDir()
	cfg := config.Default()
	cfg.Paths.FFmpegBinary = stubBinary(t, bin, "ffmpeg")
	cfg.Paths.FFprobeBinary = filepath.Join(bin, "missing-ffprobe")
	cfg.Provider.APIKey = "key"

	err := Require(&cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg.Paths.FFprobeBinary = stubBinary(t, bin, "ffprobe")
	if err := Require(&cfg); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}

	cfg.Provider.APIKey = ""
	if err := Require(&cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected missing key to fail, got %v", err)
	}
}
