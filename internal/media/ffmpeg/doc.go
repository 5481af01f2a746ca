// Package ffmpeg wraps the ffmpeg invocations murmur needs: cutting a time
// range of a source into a provider-ready WAV segment and pulling the audio
// track out of a video container.
//
// All output is mono 16 kHz pcm_s16le. The command runner is injectable so
// callers can test argument construction without ffmpeg installed.
package ffmpeg
