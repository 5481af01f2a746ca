package pipeline

import (
	"time"

	"murmur/internal/history"
	"murmur/internal/ledger"
	"murmur/internal/output"
	"murmur/internal/services"
)

// FileResult is the terminal outcome for one source.
type FileResult struct {
	Path   string
	Hash   string
	Status history.Status
	// Decision explains a skip.
	Decision ledger.Decision
	Written  output.Written

	SegmentsPlanned int
	SegmentsValid   int
	SegmentsOK      int
	// Missing lists planned windows that produced no text.
	Missing []int

	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the file ended in a failure or an interruption.
func (r FileResult) Failed() bool {
	return r.Status == history.StatusFailed || r.Status == history.StatusInterrupted
}

// Outcome converts r into a history row for runID.
func (r FileResult) Outcome(runID string) history.Outcome {
	out := history.Outcome{
		RunID:           runID,
		SourcePath:      r.Path,
		SourceHash:      r.Hash,
		Status:          r.Status,
		SegmentsPlanned: r.SegmentsPlanned,
		SegmentsValid:   r.SegmentsValid,
		SegmentsOK:      r.SegmentsOK,
		SegmentsFailed:  r.SegmentsValid - r.SegmentsOK,
		TranscriptPath:  r.Written.Transcript,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}
	if out.SegmentsFailed < 0 {
		out.SegmentsFailed = 0
	}
	if r.Err != nil {
		out.ErrorKind = services.FailureKind(r.Err)
		out.ErrorMessage = r.Err.Error()
	}
	return out
}

// BatchResult collects the outcomes of one ProcessBatch call, in input order.
type BatchResult struct {
	RunID      string
	Files      []FileResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary counts batch outcomes by status.
type Summary struct {
	Total       int
	Completed   int
	Skipped     int
	Failed      int
	Interrupted int
}

// Summary tallies the batch.
func (b BatchResult) Summary() Summary {
	s := Summary{Total: len(b.Files)}
	for _, f := range b.Files {
		switch f.Status {
		case history.StatusCompleted:
			s.Completed++
		case history.StatusSkipped:
			s.Skipped++
		case history.StatusInterrupted:
			s.Interrupted++
		default:
			s.Failed++
		}
	}
	return s
}

// HasFailures reports whether any file failed or was interrupted.
func (b BatchResult) HasFailures() bool {
	for _, f := range b.Files {
		if f.Failed() {
			return true
		}
	}
	return false
}

// Duration is the wall-clock time of the batch.
func (b BatchResult) Duration() time.Duration {
	if b.FinishedAt.Before(b.StartedAt) {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}
