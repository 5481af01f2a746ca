package history

import "time"

// Status is the terminal state recorded for one file in one run.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Outcome captures what a run did with a single source file.
type Outcome struct {
	ID              int64
	RunID           string
	SourcePath      string
	SourceHash      string
	Status          Status
	SegmentsPlanned int
	SegmentsValid   int
	SegmentsOK      int
	SegmentsFailed  int
	TranscriptPath  string
	ErrorKind       string
	ErrorMessage    string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Elapsed returns the wall-clock time spent on the file.
func (o Outcome) Elapsed() time.Duration {
	if o.StartedAt.IsZero() || o.FinishedAt.Before(o.StartedAt) {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
