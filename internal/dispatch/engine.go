package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"murmur/internal/logging"
	"murmur/internal/provider"
	"murmur/internal/segment"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// Settings holds the engine's concurrency, rate, and retry policy.
type Settings struct {
	MaxConcurrent  int
	RatePerSecond  float64
	RateBurst      int
	MaxAttempts    int
	AttemptTimeout time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxConcurrent:  5,
		RatePerSecond:  5,
		RateBurst:      1,
		MaxAttempts:    3,
		AttemptTimeout: 600 * time.Second,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Options are the per-file request parameters.
type Options struct {
	Language string
	Diarize  bool
	MimeType string
}

// Engine schedules provider calls for segments.
type Engine struct {
	provider provider.Transcriber
	settings Settings
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
	readFile func(string) ([]byte, error)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLimiter replaces the token bucket built from Settings.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Engine) {
		if l != nil {
			e.limiter = l
		}
	}
}

// WithSemaphore replaces the concurrency semaphore built from Settings.
func WithSemaphore(s *semaphore.Weighted) Option {
	return func(e *Engine) {
		if s != nil {
			e.sem = s
		}
	}
}

// WithSleeper overrides how backoff waits are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithFileReader overrides how segment audio is loaded (useful for tests).
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(e *Engine) {
		if read != nil {
			e.readFile = read
		}
	}
}

// New constructs an Engine. Zero settings fall back to DefaultSettings.
func New(p provider.Transcriber, settings Settings, logger *slog.Logger, opts ...Option) *Engine {
	settings = settings.withDefaults()
	e := &Engine{
		provider: p,
		settings: settings,
		sem:      semaphore.NewWeighted(int64(settings.MaxConcurrent)),
		limiter:  rate.NewLimiter(rate.Limit(settings.RatePerSecond), settings.RateBurst),
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		sleep:    sleepContext,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the effective engine settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MaxConcurrent <= 0 {
		s.MaxConcurrent = d.MaxConcurrent
	}
	if s.RatePerSecond <= 0 {
		s.RatePerSecond = d.RatePerSecond
	}
	if s.RateBurst <= 0 {
		s.RateBurst = d.RateBurst
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = d.MaxAttempts
	}
	if s.AttemptTimeout <= 0 {
		s.AttemptTimeout = d.AttemptTimeout
	}
	if s.InitialBackoff <= 0 {
		s.InitialBackoff = d.InitialBackoff
	}
	if s.MaxBackoff <= 0 {
		s.MaxBackoff = d.MaxBackoff
	}
	return s
}

// Backoff returns the delay after failed attempt n (1-based):
// InitialBackoff * 2^(n-1), capped at MaxBackoff.
func (s Settings) Backoff(attempt int) time.Duration {
	if attempt < 1 || s.InitialBackoff <= 0 {
		return 0
	}
	delay := s.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.MaxBackoff {
			return s.MaxBackoff
		}
	}
	return min(delay, s.MaxBackoff)
}

// retryDelay is Backoff(attempt), raised to the provider's Retry-After hint
// when err carries one. The result never exceeds MaxBackoff.
func (s Settings) retryDelay(attempt int, err error) time.Duration {
	delay := s.Backoff(attempt)
	if hint := provider.RetryAfter(err); hint > delay {
		delay = min(hint, s.MaxBackoff)
	}
	return delay
}

// TranscribeSegments transcribes every artifact and returns one result per
// artifact in input order. It always waits for every segment to reach a
// terminal outcome. When ctx is cancelled, segments that have not started
// report ctx.Err().
func (e *Engine) TranscribeSegments(ctx context.Context, artifacts []segment.Artifact, opts Options) []transcript.SegmentResult {
	results := make([]transcript.SegmentResult, len(artifacts))
	var g errgroup.Group
	for i, artifact := range artifacts {
		results[i] = transcript.SegmentResult{Index: artifact.Spec.Index, Offset: artifact.Spec.Start}
		g.Go(func() error {
			segCtx := services.WithSegment(ctx, artifact.Spec.Index)
			res := e.transcribeOne(segCtx, artifact, opts)
			res.Index = artifact.Spec.Index
			res.Offset = artifact.Spec.Start
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) transcribeOne(ctx context.Context, artifact segment.Artifact, opts Options) transcript.SegmentResult {
	logger := logging.WithContext(ctx, e.logger)
	if err := ctx.Err(); err != nil {
		return transcript.SegmentResult{Err: err}
	}
	req := provider.Request{
		MimeType: opts.MimeType,
		Language: opts.Language,
		Diarize:  opts.Diarize,
	}
	if req.MimeType == "" {
		req.MimeType = "audio/wav"
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= e.settings.MaxAttempts; attempt++ {
		resp, started, err := e.attempt(ctx, artifact.Path, req)
		if !started {
			// Cancelled while waiting for a slot or permit, or the segment
			// file could not be read.
			if lastErr == nil || errors.Is(err, services.ErrExtract) {
				return transcript.SegmentResult{Err: err, Attempts: attempts}
			}
			return transcript.SegmentResult{Err: errors.Join(err, lastErr), Attempts: attempts}
		}
		attempts = attempt
		if err == nil {
			logger.Debug("segment transcribed",
				logging.String(logging.FieldEventType, "segment_transcribed"),
				logging.Int("attempt", attempt),
				logging.Int("characters", len(resp.Text)))
			return transcript.SegmentResult{Response: resp, Attempts: attempts}
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt == e.settings.MaxAttempts {
			break
		}
		delay := e.settings.retryDelay(attempt, err)
		logging.WarnWithContext(logger, "segment attempt failed; retrying", "segment_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", e.settings.MaxAttempts),
			logging.Duration("backoff", delay),
			logging.Bool("transient", errors.Is(err, services.ErrTransient)),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "provider may be rate limiting or unavailable"),
			logging.String(logging.FieldImpact, "segment will be retried"),
		)
		if err := e.sleep(ctx, delay); err != nil {
			lastErr = errors.Join(err, lastErr)
			break
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
		lastErr = errors.Join(ctxErr, lastErr)
	}
	final := services.Wrap(services.ErrProvider, "dispatch", "transcribe",
		fmt.Sprintf("segment failed after %d attempt(s)", attempts), lastErr)
	logging.WarnWithContext(logger, "segment failed", "segment_failed",
		logging.Int("attempts", attempts),
		logging.String("failure_kind", services.FailureKind(final)),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "check provider status and API quota"),
		logging.String(logging.FieldImpact, "segment text is missing from the transcript"),
	)
	return transcript.SegmentResult{Err: final, Attempts: attempts}
}

// attempt performs one provider call under the semaphore, the limiter, and
// a per-attempt deadline. started is false when the call never began. The
// segment audio is loaded only once a slot is held and dropped when the
// attempt returns, so at most MaxConcurrent buffers are resident.
func (e *Engine) attempt(ctx context.Context, path string, req provider.Request) (resp transcript.Response, started bool, err error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return resp, false, err
	}
	defer e.sem.Release(1)
	req.Audio, err = e.readFile(path)
	if err != nil {
		return resp, false, services.Wrap(services.ErrExtract, "dispatch", "read segment", path, err)
	}
	if err := e.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp, false, ctxErr
		}
		return resp, false, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.settings.AttemptTimeout)
	defer cancel()
	resp, err = e.provider.Transcribe(attemptCtx, req)
	if err == nil {
		return resp, true, nil
	}
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		err = services.Wrap(services.ErrTimeout, "dispatch", "attempt",
			fmt.Sprintf("no response within %s", e.settings.AttemptTimeout), err)
	}
	return resp, true, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
