package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store records transcription outcomes backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const outcomeColumns = "id, run_id, source_path, source_hash, status, segments_planned, segments_valid, segments_ok, segments_failed, transcript_path, error_kind, error_message, started_at, finished_at"

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history: database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record inserts an outcome row and returns its identifier.
func (s *Store) Record(ctx context.Context, outcome Outcome) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("history store unavailable")
	}
	if strings.TrimSpace(outcome.RunID) == "" {
		return 0, errors.New("history record: run id required")
	}
	if strings.TrimSpace(outcome.SourcePath) == "" {
		return 0, errors.New("history record: source path required")
	}
	if outcome.Status == "" {
		return 0, errors.New("history record: status required")
	}
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = time.Now()
	}
	if outcome.StartedAt.IsZero() {
		outcome.StartedAt = outcome.FinishedAt
	}

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO outcomes (
                run_id, source_path, source_hash, status,
                segments_planned, segments_valid, segments_ok, segments_failed,
                transcript_path, error_kind, error_message, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			outcome.RunID,
			outcome.SourcePath,
			nullableString(outcome.SourceHash),
			string(outcome.Status),
			outcome.SegmentsPlanned,
			outcome.SegmentsValid,
			outcome.SegmentsOK,
			outcome.SegmentsFailed,
			nullableString(outcome.TranscriptPath),
			nullableString(outcome.ErrorKind),
			nullableString(outcome.ErrorMessage),
			formatTime(outcome.StartedAt),
			formatTime(outcome.FinishedAt),
		)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("insert outcome: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit outcomes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes ORDER BY finished_at DESC, id DESC LIMIT ?", limit)
}

// ByRun returns every outcome recorded for runID in insertion order.
func (s *Store) ByRun(ctx context.Context, runID string) ([]Outcome, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("history: run id required")
	}
	return s.query(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes WHERE run_id = ? ORDER BY id", runID)
}

// LastForSource returns the newest outcome for a source path, or nil when none exists.
func (s *Store) LastForSource(ctx context.Context, sourcePath string) (*Outcome, error) {
	outcomes, err := s.query(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes WHERE source_path = ? ORDER BY finished_at DESC, id DESC LIMIT 1",
		sourcePath)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, nil
	}
	return &outcomes[0], nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Outcome, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store unavailable")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

func scanOutcome(scanner interface{ Scan(dest ...any) error }) (Outcome, error) {
	var (
		out            Outcome
		status         string
		sourceHash     sql.NullString
		transcriptPath sql.NullString
		errorKind      sql.NullString
		errorMessage   sql.NullString
		startedRaw     string
		finishedRaw    string
	)
	if err := scanner.Scan(
		&out.ID,
		&out.RunID,
		&out.SourcePath,
		&sourceHash,
		&status,
		&out.SegmentsPlanned,
		&out.SegmentsValid,
		&out.SegmentsOK,
		&out.SegmentsFailed,
		&transcriptPath,
		&errorKind,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Outcome{}, fmt.Errorf("scan outcome: %w", err)
	}
	out.Status = Status(status)
	out.SourceHash = sourceHash.String
	out.TranscriptPath = transcriptPath.String
	out.ErrorKind = errorKind.String
	out.ErrorMessage = errorMessage.String
	if t, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		out.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
		out.FinishedAt = t
	}
	return out, nil
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
