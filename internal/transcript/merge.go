package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"murmur/internal/fileutil"
)

// MergeSeparator joins transcripts in the merged file.
const MergeSeparator = "\n\n---\n\n"

// Merge concatenates every plain transcript in dir, sorted by file name, into
// dir/merged_transcriptions.md. It returns the output path and the number of
// transcripts merged. Speaker files and a previous merge output are excluded.
func Merge(dir string) (string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("read directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsTranscriptName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", 0, fmt.Errorf("no transcripts found in %s", dir)
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", 0, fmt.Errorf("read %s: %w", name, err)
		}
		parts = append(parts, strings.TrimRight(string(data), "\n"))
	}

	out := filepath.Join(dir, MergedFileName)
	if err := fileutil.WriteFileAtomic(out, []byte(strings.Join(parts, MergeSeparator)), 0o644); err != nil {
		return "", 0, fmt.Errorf("write merged transcript: %w", err)
	}
	return out, len(names), nil
}
