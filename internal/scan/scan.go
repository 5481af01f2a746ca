// Package scan discovers the media files a run should transcribe.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"murmur/internal/media"
	"murmur/internal/segment"
)

// IsVideo reports whether path has a video container extension.
func IsVideo(path string) bool {
	return media.IsVideo(path)
}

// IsSupported reports whether path has a supported audio or video extension.
func IsSupported(path string) bool {
	return media.IsSupported(path)
}

// MediaFiles returns the supported files in dir, sorted by path. Hidden files,
// which include extracted video audio, and chunk artifacts are skipped.
func MediaFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !IsSupported(path) || segment.IsChunkName(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	slices.Sort(files)
	return files, nil
}

// Resolve expands a mix of file and directory arguments into a sorted,
// de-duplicated list of media files.
func Resolve(paths []string, recursive bool) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	for _, raw := range paths {
		path, err := filepath.Abs(raw)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", raw, err)
		}
		if info.IsDir() {
			found, err := MediaFiles(path, recursive)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}
		if !IsSupported(path) {
			return nil, fmt.Errorf("scan %s: %w", raw, ErrUnsupported)
		}
		add(path)
	}
	slices.Sort(out)
	return out, nil
}

// ErrUnsupported reports a file argument with an unknown extension.
var ErrUnsupported = errors.New("unsupported file type")

// ExtractedAudioPath is where the audio track of a video source is written:
// a hidden ".<stem>.<hash8>.extracted.wav" beside it, so a user's own
// "<stem>.wav" is never touched.
func ExtractedAudioPath(video, hash string) string {
	stem := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
	name := "." + stem
	if tag := segment.HashTag(hash); tag != "" {
		name += "." + tag
	}
	return filepath.Join(filepath.Dir(video), name+".extracted.wav")
}
