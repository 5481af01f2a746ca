package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/internal/ledger"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

type recordingMarker struct {
	marked []ledger.SourceFile
	err    error
}

func (m *recordingMarker) MarkProcessed(file ledger.SourceFile) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.marked = append(m.marked, file)
	return true, nil
}

func testSource(t *testing.T) ledger.SourceFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return ledger.SourceFile{Path: path, Hash: "deadbeef", Size: 5, Dir: dir}
}

func sampleTranscript(withSpeakers bool) transcript.Transcript {
	t := transcript.Transcript{Text: "hello world", Segments: 2, Succeeded: 2, Model: "nova-2", Channels: 1, Duration: 1200}
	if withSpeakers {
		t.Paragraphs = []transcript.Paragraph{{Speaker: 0, Text: "hello"}, {Speaker: 1, Text: "world"}}
	}
	return t
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriteBothFiles(t *testing.T) {
	src := testSource(t)
	w := NewWriter(nil, logging.NewNop())

	written, err := w.Write(context.Background(), src, sampleTranscript(true))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if written.Transcript != filepath.Join(src.Dir, "talk.md") || written.Speakers != filepath.Join(src.Dir, "talk.speakers.md") {
		t.Fatalf("unexpected paths %+v", written)
	}
	plain, err := os.ReadFile(written.Transcript)
	if err != nil {
		t.Fatal(err)
	}
	if hash, ok := transcript.ParseSourceHash(plain); !ok || hash != "deadbeef" {
		t.Fatalf("transcript missing source hash:\n%s", plain)
	}
	speakers, err := os.ReadFile(written.Speakers)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(speakers), "**Speaker 2:** world") {
		t.Fatalf("unexpected speakers file:\n%s", speakers)
	}
	for _, name := range listDir(t, src.Dir) {
		if strings.HasSuffix(name, ".tmp") {
			t.Fatalf("temp file left behind: %s", name)
		}
	}
}

func TestWriteWithoutSpeakersRemovesStaleFile(t *testing.T) {
	src := testSource(t)
	_, stale := transcript.Paths(src.Path)
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	written, err := NewWriter(nil, logging.NewNop()).Write(context.Background(), src, sampleTranscript(false))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if written.Speakers != "" || len(written.Files()) != 1 {
		t.Fatalf("unexpected written %+v", written)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale speaker transcript should be removed")
	}
}

func TestWriteFailureLeavesNothing(t *testing.T) {
	src := testSource(t)
	calls := 0
	failSecond := func(oldpath, newpath string) error {
		calls++
		if calls == 2 {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}
	w := NewWriter(nil, logging.NewNop(), WithRename(failSecond))

	_, err := w.Write(context.Background(), src, sampleTranscript(true))
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	names := listDir(t, src.Dir)
	if len(names) != 1 || names[0] != "talk.mp3" {
		t.Fatalf("expected only the source to remain, found %v", names)
	}
}

func TestFinalizeMarksAndCleansUp(t *testing.T) {
	src := testSource(t)
	var artifacts []string
	for _, name := range []string{"talk_chunk_0.wav", "talk_chunk_1.wav"} {
		p := filepath.Join(src.Dir, name)
		if err := os.WriteFile(p, []byte("pcm"), 0o644); err != nil {
			t.Fatal(err)
		}
		artifacts = append(artifacts, p)
	}
	intermediate := filepath.Join(src.Dir, "talk.wav")
	if err := os.WriteFile(intermediate, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	marker := &recordingMarker{}
	w := NewWriter(marker, logging.NewNop())

	if err := w.Finalize(context.Background(), src, append(artifacts, filepath.Join(src.Dir, "gone.wav")), intermediate); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(marker.marked) != 1 || marker.marked[0].Hash != "deadbeef" {
		t.Fatalf("source not marked: %+v", marker.marked)
	}
	names := listDir(t, src.Dir)
	if len(names) != 1 || names[0] != "talk.mp3" {
		t.Fatalf("expected only the source to remain, found %v", names)
	}
}

func TestFinalizeNeverDeletesSource(t *testing.T) {
	src := testSource(t)
	if err := NewWriter(&recordingMarker{}, logging.NewNop()).Finalize(context.Background(), src, nil, src.Path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src.Path); err != nil {
		t.Fatalf("source removed: %v", err)
	}
}

func TestFinalizeReportsLedgerFailure(t *testing.T) {
	src := testSource(t)
	chunk := filepath.Join(src.Dir, "talk_chunk_0.wav")
	if err := os.WriteFile(chunk, []byte("pcm"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWriter(&recordingMarker{err: errors.New("read-only filesystem")}, logging.NewNop())
	err := w.Finalize(context.Background(), src, []string{chunk}, "")
	if !errors.Is(err, services.ErrLedger) {
		t.Fatalf("expected ErrLedger, got %v", err)
	}
	if _, statErr := os.Stat(chunk); !os.IsNotExist(statErr) {
		t.Fatal("artifacts should still be removed")
	}
}
