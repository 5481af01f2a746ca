package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"murmur/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndByRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := history.Outcome{
		RunID:           "run-1",
		SourcePath:      "/media/a.mp3",
		SourceHash:      "abc",
		Status:          history.StatusCompleted,
		SegmentsPlanned: 3,
		SegmentsValid:   3,
		SegmentsOK:      3,
		TranscriptPath:  "/media/a.md",
		StartedAt:       start,
		FinishedAt:      start.Add(2 * time.Minute),
	}
	second := history.Outcome{
		RunID:        "run-1",
		SourcePath:   "/media/b.mp3",
		Status:       history.StatusFailed,
		ErrorKind:    "provider",
		ErrorMessage: "all segments failed",
		StartedAt:    start,
		FinishedAt:   start.Add(3 * time.Minute),
	}
	other := history.Outcome{RunID: "run-2", SourcePath: "/media/c.mp3", Status: history.StatusSkipped}

	for _, outcome := range []history.Outcome{first, second, other} {
		if _, err := store.Record(ctx, outcome); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := store.ByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ByRun failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(got))
	}
	if got[0].SourcePath != "/media/a.mp3" || got[0].Status != history.StatusCompleted {
		t.Fatalf("unexpected first outcome: %#v", got[0])
	}
	if got[0].SegmentsOK != 3 || got[0].TranscriptPath != "/media/a.md" {
		t.Fatalf("segment fields not persisted: %#v", got[0])
	}
	if got[0].Elapsed() != 2*time.Minute {
		t.Fatalf("unexpected elapsed: %v", got[0].Elapsed())
	}
	if got[1].ErrorKind != "provider" || got[1].SourceHash != "" {
		t.Fatalf("unexpected second outcome: %#v", got[1])
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"one", "two", "three"} {
		_, err := store.Record(ctx, history.Outcome{
			RunID:      "run",
			SourcePath: "/media/" + name,
			Status:     history.StatusCompleted,
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(recent))
	}
	if recent[0].SourcePath != "/media/three" || recent[1].SourcePath != "/media/two" {
		t.Fatalf("unexpected order: %q, %q", recent[0].SourcePath, recent[1].SourcePath)
	}

	last, err := store.LastForSource(ctx, "/media/one")
	if err != nil {
		t.Fatalf("LastForSource failed: %v", err)
	}
	if last == nil || last.SourcePath != "/media/one" {
		t.Fatalf("unexpected last outcome: %#v", last)
	}
	missing, err := store.LastForSource(ctx, "/media/none")
	if err != nil || missing != nil {
		t.Fatalf("expected nil outcome for unknown source, got %#v %v", missing, err)
	}
}

func TestRecordValidatesRequiredFields(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Record(ctx, history.Outcome{SourcePath: "/x", Status: history.StatusFailed}); err == nil {
		t.Fatal("expected error when run id missing")
	}
	if _, err := store.Record(ctx, history.Outcome{RunID: "r", Status: history.StatusFailed}); err == nil {
		t.Fatal("expected error when source path missing")
	}
	if _, err := store.Record(ctx, history.Outcome{RunID: "r", SourcePath: "/x"}); err == nil {
		t.Fatal("expected error when status missing")
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Outcome{RunID: "r", SourcePath: "/x", Status: history.StatusCompleted}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	outcomes, err := reopened.ByRun(context.Background(), "r")
	if err != nil {
		t.Fatalf("ByRun failed: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected persisted outcome, got %d", len(outcomes))
	}
}
