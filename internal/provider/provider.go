// Package provider defines the contract between the dispatch engine and a
// remote transcription service.
package provider

import (
	"context"
	"errors"
	"time"

	"murmur/internal/transcript"
)

// Request is one segment to transcribe.
type Request struct {
	Audio    []byte
	MimeType string
	// Language is a BCP 47 hint or "auto" for provider-side detection.
	Language string
	Diarize  bool
}

// Transcriber turns one audio buffer into a typed response. Implementations
// make a single attempt per call; callers own retries and deadlines.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (transcript.Response, error)
}

// TranscriberFunc adapts a function to the Transcriber interface.
type TranscriberFunc func(ctx context.Context, req Request) (transcript.Response, error)

// Transcribe calls f.
func (f TranscriberFunc) Transcribe(ctx context.Context, req Request) (transcript.Response, error) {
	return f(ctx, req)
}

// RetryHinter is implemented by provider errors that carry a server-requested
// wait before the next attempt.
type RetryHinter interface {
	RetryDelay() time.Duration
}

// RetryAfter returns the wait requested by the first RetryHinter in err's
// chain, or zero.
func RetryAfter(err error) time.Duration {
	var hinter RetryHinter
	if errors.As(err, &hinter) {
		return max(hinter.RetryDelay(), 0)
	}
	return 0
}
