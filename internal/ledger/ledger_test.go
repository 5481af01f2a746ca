package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

func writeSource(t *testing.T, dir, name, content string) SourceFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewSourceFile(path)
	if err != nil {
		t.Fatalf("NewSourceFile: %v", err)
	}
	return src
}

func openTemp(t *testing.T, opts Options) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "processed_files.json")
	return Open(path, opts, logging.NewNop()), path
}

func TestMarkProcessedIdempotent(t *testing.T) {
	l, path := openTemp(t, Options{})
	src := writeSource(t, t.TempDir(), "talk.mp3", "audio bytes")

	inserted, err := l.MarkProcessed(src)
	if err != nil || !inserted {
		t.Fatalf("first mark = %v, %v", inserted, err)
	}
	inserted, err = l.MarkProcessed(src)
	if err != nil || inserted {
		t.Fatalf("second mark = %v, %v", inserted, err)
	}
	if l.Count() != 1 {
		t.Fatalf("expected one record, got %d", l.Count())
	}

	reopened := Open(path, Options{}, logging.NewNop())
	if reopened.Count() != 1 {
		t.Fatalf("persisted count = %d", reopened.Count())
	}
	rec, ok := reopened.Lookup(src.Hash)
	if !ok || rec.Name != "talk.mp3" || rec.Size != int64(len("audio bytes")) || rec.Path != src.Path {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestIdentityIsContentHash(t *testing.T) {
	l, _ := openTemp(t, Options{})
	a := writeSource(t, t.TempDir(), "one.mp3", "same bytes")
	b := writeSource(t, t.TempDir(), "renamed.mp3", "same bytes")
	c := writeSource(t, t.TempDir(), "one.mp3", "same bytez")

	if a.Hash != b.Hash {
		t.Fatal("identical content should share a hash")
	}
	if a.Hash == c.Hash {
		t.Fatal("a one-byte change should change the hash")
	}
	if _, err := l.MarkProcessed(a); err != nil {
		t.Fatal(err)
	}
	if ok, _ := l.IsProcessed(b); !ok {
		t.Fatal("moved copy should be recognized")
	}
	if ok, _ := l.IsProcessed(c); ok {
		t.Fatal("changed content should be unprocessed")
	}
}

func TestCorruptOrEmptyLedgerStartsEmpty(t *testing.T) {
	for name, content := range map[string]string{
		"empty":   "",
		"spaces":  "  \n",
		"garbage": "{not json",
		"array":   "[1,2,3]",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "processed_files.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			l := Open(path, Options{}, logging.NewNop())
			if l.Count() != 0 {
				t.Fatalf("expected empty ledger, got %d", l.Count())
			}
			src := writeSource(t, t.TempDir(), "a.wav", "x")
			if _, err := l.MarkProcessed(src); err != nil {
				t.Fatalf("mark after corruption: %v", err)
			}
			if Open(path, Options{}, logging.NewNop()).Count() != 1 {
				t.Fatal("mark should rewrite a valid ledger")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	l, _ := openTemp(t, Options{})
	src := writeSource(t, t.TempDir(), "talk.mp3", "bytes")
	if _, err := l.MarkProcessed(src); err != nil {
		t.Fatal(err)
	}
	if err := l.Remove(strings.ToUpper(src.Hash)); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if l.Count() != 0 {
		t.Fatal("record should be gone")
	}
	if err := l.Remove(src.Hash); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	l, _ := openTemp(t, Options{})
	dirA, dirB := t.TempDir(), t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	second := writeSource(t, dirA, "b.mp3", "b")
	first := writeSource(t, dirA, "a.mp3", "a")
	other := writeSource(t, dirB, "c.mp3", "c")
	for _, src := range []SourceFile{first, second, other} {
		if _, err := l.MarkProcessed(src); err != nil {
			t.Fatal(err)
		}
	}

	all := l.List("")
	if len(all) != 3 || all[0].Hash != first.Hash || all[1].Hash != second.Hash {
		t.Fatalf("unexpected order: %+v", all)
	}
	inA := l.List(dirA + "/")
	if len(inA) != 2 {
		t.Fatalf("expected 2 records in dirA, got %d", len(inA))
	}
}

func TestConcurrentMarksAreNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.json")
	l1 := Open(path, Options{}, logging.NewNop())
	l2 := Open(path, Options{}, logging.NewNop())
	srcDir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		src := writeSource(t, srcDir, "f"+string(rune('a'+i))+".mp3", "content-"+string(rune('a'+i)))
		target := l1
		if i%2 == 1 {
			target = l2
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := target.MarkProcessed(src); err != nil {
				t.Errorf("mark: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := Open(path, Options{}, logging.NewNop()).Count(); got != 20 {
		t.Fatalf("expected 20 records on disk, got %d", got)
	}
}

func TestLegacyLedgerMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.json")
	legacy := `{
  "directories": {
    "/media/talks": {
      "files": {
        "ABCDEF": {"name": "talk.mp3", "size": 42, "processed_time": 1700000000.5, "path": "/media/talks/talk.mp3"}
      }
    }
  }
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	l := Open(path, Options{}, logging.NewNop())
	rec, ok := l.Lookup("abcdef")
	if !ok {
		t.Fatal("legacy record not loaded")
	}
	if rec.Dir != "/media/talks" || rec.Size != 42 || rec.ProcessedAt.Unix() != 1700000000 {
		t.Fatalf("unexpected legacy record %+v", rec)
	}

	src := writeSource(t, t.TempDir(), "new.mp3", "new")
	if _, err := l.MarkProcessed(src); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version": 1`) || strings.Contains(string(data), "directories") {
		t.Fatalf("ledger not migrated:\n%s", data)
	}
	if Open(path, Options{}, logging.NewNop()).Count() != 2 {
		t.Fatal("migrated ledger should keep legacy record")
	}
}

func writeTranscript(t *testing.T, src SourceFile, hash string) {
	t.Helper()
	plain, _ := transcript.Paths(src.Path)
	meta := transcript.Metadata{Source: src.Name(), SourceHash: hash, SegmentsOK: 1, SegmentsTotal: 1}
	if err := os.WriteFile(plain, transcript.Render(meta, "hello"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAdoptionPolicy(t *testing.T) {
	t.Run("matching hash adopts", func(t *testing.T) {
		l, _ := openTemp(t, Options{})
		src := writeSource(t, t.TempDir(), "talk.mp3", "audio")
		writeTranscript(t, src, src.Hash)

		ok, decision, err := l.Check(src)
		if err != nil || !ok || decision != DecisionAdopted {
			t.Fatalf("Check = %v, %v, %v", ok, decision, err)
		}
		rec, found := l.Lookup(src.Hash)
		if !found || !rec.Adopted {
			t.Fatalf("adoption should create a record: %+v", rec)
		}
	})

	t.Run("different hash re-transcribes", func(t *testing.T) {
		l, _ := openTemp(t, Options{AdoptLegacyTranscripts: true})
		src := writeSource(t, t.TempDir(), "talk.mp3", "audio v2")
		writeTranscript(t, src, strings.Repeat("0", 64))

		ok, decision, _ := l.Check(src)
		if ok || decision != DecisionHashMismatch {
			t.Fatalf("Check = %v, %v", ok, decision)
		}
		if l.Count() != 0 {
			t.Fatal("mismatch must not create a record")
		}
	})

	t.Run("legacy transcript declined by default", func(t *testing.T) {
		l, _ := openTemp(t, Options{})
		src := writeSource(t, t.TempDir(), "talk.mp3", "audio")
		writeTranscript(t, src, "")

		ok, decision, _ := l.Check(src)
		if ok || decision != DecisionLegacyDeclined {
			t.Fatalf("Check = %v, %v", ok, decision)
		}
	})

	t.Run("legacy transcript adopted when enabled", func(t *testing.T) {
		l, _ := openTemp(t, Options{AdoptLegacyTranscripts: true})
		src := writeSource(t, t.TempDir(), "talk.mp3", "audio")
		writeTranscript(t, src, "")

		if ok, err := l.IsProcessed(src); !ok || err != nil {
			t.Fatalf("IsProcessed = %v, %v", ok, err)
		}
	})

	t.Run("no transcript", func(t *testing.T) {
		l, _ := openTemp(t, Options{AdoptLegacyTranscripts: true})
		src := writeSource(t, t.TempDir(), "talk.mp3", "audio")
		ok, decision, _ := l.Check(src)
		if ok || decision != DecisionUnprocessed {
			t.Fatalf("Check = %v, %v", ok, decision)
		}
	})
}
