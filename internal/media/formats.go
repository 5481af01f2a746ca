// Package media lists the container formats murmur accepts. The ffmpeg and
// ffprobe subpackages wrap the external tools that read them.
package media

import (
	"path/filepath"
	"slices"
	"strings"
)

var (
	audioExtensions = []string{".mp3", ".wav", ".aac", ".m4a", ".flac"}
	videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
)

// IsVideo reports whether path has a video container extension.
func IsVideo(path string) bool {
	return slices.Contains(videoExtensions, strings.ToLower(filepath.Ext(path)))
}

// IsSupported reports whether path has a supported audio or video extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(audioExtensions, ext) || slices.Contains(videoExtensions, ext)
}
