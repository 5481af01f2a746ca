package scan

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func relative(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestMediaFilesFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"b.mp3",
		"a.FLAC",
		"notes.txt",
		"talk.mp4",
		"talk.wav",
		".talk.0123abcd.extracted.wav",
		"b_0123abcd_chunk_3.wav",
		"b_chunk_0.wav",
		"b_chunk_12.wav",
		"standalone.wav",
		".hidden.mp3",
		"nested/deep.m4a",
	} {
		touch(t, filepath.Join(root, name))
	}

	got, err := MediaFiles(root, false)
	if err != nil {
		t.Fatalf("MediaFiles: %v", err)
	}
	want := []string{"a.FLAC", "b.mp3", "standalone.wav", "talk.mp4", "talk.wav"}
	if rel := relative(t, root, got); !slices.Equal(rel, want) {
		t.Fatalf("got %v, want %v", rel, want)
	}

	got, err = MediaFiles(root, true)
	if err != nil {
		t.Fatalf("MediaFiles recursive: %v", err)
	}
	if rel := relative(t, root, got); !slices.Contains(rel, "nested/deep.m4a") {
		t.Fatalf("recursive scan missed nested file: %v", rel)
	}
}

func TestMediaFilesRejectsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.mp3")
	touch(t, path)
	if _, err := MediaFiles(path, false); err == nil {
		t.Fatal("expected error for non-directory")
	}
}

func TestResolveMixesFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "one.mp3"))
	touch(t, filepath.Join(root, "two.wav"))

	got, err := Resolve([]string{root, filepath.Join(root, "one.mp3")}, false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected de-duplicated list of 2, got %v", got)
	}

	touch(t, filepath.Join(root, "doc.pdf"))
	if _, err := Resolve([]string{filepath.Join(root, "doc.pdf")}, false); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestExtractedAudioPath(t *testing.T) {
	if got := ExtractedAudioPath("/x/talk.MKV", "0123ABCDEF99"); got != "/x/.talk.0123abcd.extracted.wav" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractedAudioPath("/x/talk.mkv", ""); got != "/x/.talk.extracted.wav" {
		t.Fatalf("got %q", got)
	}
	if !IsVideo("a.WebM") || IsVideo("a.mp3") {
		t.Fatal("IsVideo misclassified")
	}
}
