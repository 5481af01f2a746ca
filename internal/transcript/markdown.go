package transcript

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"murmur/internal/media"
)

const (
	// MergedFileName is the output of Merge; it is never treated as a transcript.
	MergedFileName = "merged_transcriptions.md"

	speakersSuffix = ".speakers.md"
	hashLabel      = "- Source SHA-256:"
)

// Metadata describes the header block written at the top of each transcript.
type Metadata struct {
	Source        string
	SourceHash    string
	Duration      float64
	Channels      int
	Model         string
	SegmentsOK    int
	SegmentsTotal int
	Missing       []int
}

// MetadataFor builds the header for t written from source with content hash.
func MetadataFor(source, hash string, t Transcript) Metadata {
	return Metadata{
		Source:        filepath.Base(source),
		SourceHash:    hash,
		Duration:      t.Duration,
		Channels:      t.Channels,
		Model:         t.Model,
		SegmentsOK:    t.Succeeded,
		SegmentsTotal: t.Segments,
		Missing:       append([]int(nil), t.Failed...),
	}
}

// Paths returns the plain and speaker transcript locations for source:
// "<stem>.md" and "<stem>.speakers.md". When another media file in the same
// directory shares the stem, the extension is kept ("talk.mp3.md") so the
// two sources never write the same transcript.
func Paths(source string) (plain, speakers string) {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if sharesStem(source) {
		base = source
	}
	return base + ".md", base + speakersSuffix
}

func sharesStem(source string) bool {
	name := filepath.Base(source)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	entries, err := os.ReadDir(filepath.Dir(source))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		other := entry.Name()
		if other == name || entry.IsDir() || strings.HasPrefix(other, ".") {
			continue
		}
		if media.IsSupported(other) && strings.TrimSuffix(other, filepath.Ext(other)) == stem {
			return true
		}
	}
	return false
}

// IsTranscriptName reports whether name is a plain transcript that Merge
// should include.
func IsTranscriptName(name string) bool {
	base := filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(base), ".md") {
		return false
	}
	lower := strings.ToLower(base)
	return !strings.HasSuffix(lower, speakersSuffix) && lower != MergedFileName
}

// Render returns the markdown plain transcript.
func Render(meta Metadata, text string) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, meta)
	buf.WriteString("## Transcript\n\n")
	buf.WriteString(strings.TrimSpace(text))
	buf.WriteString("\n")
	return buf.Bytes()
}

// RenderSpeakers returns the markdown speaker-attributed transcript.
// Speakers are numbered from 1.
func RenderSpeakers(meta Metadata, paragraphs []Paragraph) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, meta)
	buf.WriteString("## Speakers\n\n")
	for _, p := range paragraphs {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&buf, "**Speaker %d:** %s\n\n", p.Speaker+1, text)
	}
	return append(bytes.TrimRight(buf.Bytes(), "\n"), '\n')
}

func writeHeader(buf *bytes.Buffer, meta Metadata) {
	buf.WriteString("# Transcription\n\n")
	buf.WriteString("## Metadata\n\n")
	if meta.Source != "" {
		fmt.Fprintf(buf, "- Source: %s\n", meta.Source)
	}
	if meta.SourceHash != "" {
		fmt.Fprintf(buf, "%s %s\n", hashLabel, meta.SourceHash)
	}
	fmt.Fprintf(buf, "- Duration: %s seconds\n", strconv.FormatFloat(meta.Duration, 'f', -1, 64))
	fmt.Fprintf(buf, "- Channels: %d\n", meta.Channels)
	model := meta.Model
	if model == "" {
		model = "N/A"
	}
	fmt.Fprintf(buf, "- Model: %s\n", model)
	fmt.Fprintf(buf, "- Segments: %d/%d\n", meta.SegmentsOK, meta.SegmentsTotal)
	if len(meta.Missing) > 0 {
		parts := make([]string, len(meta.Missing))
		for i, idx := range meta.Missing {
			parts[i] = strconv.Itoa(idx)
		}
		fmt.Fprintf(buf, "- Missing segments: %s\n", strings.Join(parts, ", "))
	}
	buf.WriteString("\n")
}

// ParseSourceHash returns the content hash recorded in a transcript's
// metadata block. ok is false for transcripts written without one.
func ParseSourceHash(data []byte) (hash string, ok bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "## Transcript") || strings.HasPrefix(line, "## Speakers") {
			break
		}
		if rest, found := strings.CutPrefix(line, hashLabel); found {
			hash = strings.ToLower(strings.TrimSpace(rest))
			return hash, hash != ""
		}
	}
	return "", false
}
