package segment

import (
	"context"
	"fmt"

	"murmur/internal/media/ffprobe"
	"murmur/internal/services"
)

// Prober inspects media files.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Inspect calls f.
func (f ProberFunc) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return f(ctx, path)
}

// FFprobe returns a Prober that executes the given ffprobe binary.
func FFprobe(binary string) Prober {
	return ProberFunc(func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	})
}

// Probe returns the playable duration of path in seconds along with the full
// inspection result. It fails with services.ErrProbe when the file has no
// audio stream or no positive duration.
func Probe(ctx context.Context, prober Prober, path string) (float64, ffprobe.Result, error) {
	result, err := prober.Inspect(ctx, path)
	if err != nil {
		return 0, ffprobe.Result{}, services.Wrap(services.ErrProbe, "segment", "probe", "inspect media", err)
	}
	if result.AudioStreamCount() == 0 {
		return 0, result, services.Wrap(services.ErrProbe, "segment", "probe", "no audio stream", nil)
	}
	if !result.HasPlayableAudio() {
		return 0, result, services.Wrap(services.ErrProbe, "segment", "probe",
			fmt.Sprintf("unusable duration %q", result.Format.Duration), nil)
	}
	return result.DurationSeconds(), result, nil
}
