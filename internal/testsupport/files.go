package testsupport

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// WriteFile fills path with size bytes of a repeating pattern and returns
// path. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) string {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FakeFFmpeg stands in for the ffmpeg runner: it writes the output file's
// base name padded with zeros to Size bytes at the output path (the last
// argument) and records every invocation.
type FakeFFmpeg struct {
	Size int64
	// Fail, when set, decides per output path whether the call fails.
	Fail func(dest string) bool

	mu    sync.Mutex
	calls [][]string
}

// Run matches the ffmpeg.Runner signature.
func (f *FakeFFmpeg) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if len(args) == 0 {
		return nil, errors.New("fake ffmpeg: no output path")
	}
	dest := args[len(args)-1]
	if f.Fail != nil && f.Fail(dest) {
		return []byte("fake ffmpeg failure"), errors.New("exit status 1")
	}
	size := f.Size
	if size <= 0 {
		size = 4096
	}
	data := []byte(filepath.Base(dest))
	if int64(len(data)) < size {
		data = append(data, make([]byte, size-int64(len(data)))...)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

// SegmentName recovers the file name a FakeFFmpeg output was written for.
func SegmentName(audio []byte) string {
	return string(bytes.TrimRight(audio, "\x00"))
}

// Calls returns a copy of the recorded invocations.
func (f *FakeFFmpeg) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}
