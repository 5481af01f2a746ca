// Package services defines shared utilities consumed by the transcription
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, source paths, stage names, and
//     segment indexes for logging.
//   - Structured error markers plus the Wrap helper, so failures from the
//     segmenter, provider, ledger, and writer classify consistently into
//     history statuses and short failure kinds.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
