// Package deepgram implements the transcription provider against the
// Deepgram pre-recorded REST API (POST /v1/listen) and any server that speaks
// the same protocol.
//
// The client issues exactly one HTTP request per Transcribe call. Retries,
// rate limiting, and timeouts belong to the dispatch engine that drives it.
// Responses are decoded once into transcript.Response; no untyped maps
// escape this package.
package deepgram
