// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe against a media file and Parse decodes a captured
// payload. Helper methods on Result answer the questions the transcription
// pipeline asks about a source or a cut segment: how long it is, how many
// audio and video streams it carries, and whether it contains playable audio.
package ffprobe
