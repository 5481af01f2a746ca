package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor runs ffmpeg extraction commands.
type Extractor struct {
	binary string
	run    Runner
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRunner overrides the command runner (for tests).
func WithRunner(run Runner) Option {
	return func(e *Extractor) {
		if run != nil {
			e.run = run
		}
	}
}

// New constructs an Extractor for the given ffmpeg binary.
func New(binary string, opts ...Option) *Extractor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	e := &Extractor{binary: binary, run: defaultRunner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binary returns the ffmpeg executable this extractor invokes.
func (e *Extractor) Binary() string {
	return e.binary
}

// ExtractRange cuts [start, start+length) seconds of source into dest.
func (e *Extractor) ExtractRange(ctx context.Context, source string, start, length float64, dest string) error {
	if length <= 0 {
		return fmt.Errorf("extract range: invalid length %v", length)
	}
	if start < 0 {
		return fmt.Errorf("extract range: invalid start %v", start)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
	}
	args = append(args, wavOutputArgs(dest)...)
	if output, err := e.run(ctx, e.binary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract range: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractAudioTrack writes the full audio stream at audioIndex (container
// index) of a video source into dest.
func (e *Extractor) ExtractAudioTrack(ctx context.Context, source string, audioIndex int, dest string) error {
	if audioIndex < 0 {
		return fmt.Errorf("extract audio: invalid audio track index %d", audioIndex)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:%d", audioIndex),
		"-vn",
		"-sn",
		"-dn",
	}
	args = append(args, wavOutputArgs(dest)...)
	if output, err := e.run(ctx, e.binary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func wavOutputArgs(dest string) []string {
	return []string{
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil && ctx.Err() != nil {
		return output, errors.Join(ctx.Err(), err)
	}
	return output, err
}
