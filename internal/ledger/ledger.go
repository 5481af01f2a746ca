package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"murmur/internal/fileutil"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// Options tunes ledger behavior.
type Options struct {
	// AdoptLegacyTranscripts adopts existing transcripts that carry no
	// source hash. Transcripts with a hash are adopted only on a match.
	AdoptLegacyTranscripts bool
}

// Ledger is the durable set of processed source hashes.
type Ledger struct {
	path    string
	opts    Options
	logger  *slog.Logger
	fileMu  *flock.Flock
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// Open loads the ledger at path. It never fails on bad contents: a missing,
// empty, or malformed file yields an empty ledger and a warning.
func Open(path string, opts Options, logger *slog.Logger) *Ledger {
	l := &Ledger{
		path:    path,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "ledger"),
		fileMu:  flock.New(path + ".lock"),
		records: make(map[string]Record),
		now:     time.Now,
	}
	records, err := l.read()
	if err != nil {
		l.warnUnreadable(err)
		return l
	}
	l.records = records
	l.logger.Debug("ledger loaded",
		logging.Int("record_count", len(records)),
		logging.String("path", path))
	return l
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Count returns the number of records.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Lookup returns the record for hash.
func (l *Ledger) Lookup(hash string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[normalizeHash(hash)]
	return rec, ok
}

// Decision explains an IsProcessed answer.
type Decision string

const (
	DecisionUnprocessed     Decision = "unprocessed"
	DecisionRecorded        Decision = "recorded"
	DecisionAdopted         Decision = "adopted"
	DecisionHashMismatch    Decision = "transcript_hash_mismatch"
	DecisionLegacyDeclined  Decision = "legacy_transcript_not_adopted"
	DecisionTranscriptError Decision = "transcript_unreadable"
)

// IsProcessed reports whether file has already been transcribed. When no
// record exists but a transcript for file.Path passes the adoption policy, a
// record is created as a side effect. An error is returned only when adoption
// succeeded but could not be persisted; the answer is still true in that case.
func (l *Ledger) IsProcessed(file SourceFile) (bool, error) {
	processed, _, err := l.Check(file)
	return processed, err
}

// Check is IsProcessed with the reason for the answer.
func (l *Ledger) Check(file SourceFile) (bool, Decision, error) {
	if _, ok := l.Lookup(file.Hash); ok {
		return true, DecisionRecorded, nil
	}

	plain, _ := transcript.Paths(file.Path)
	data, err := os.ReadFile(plain)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, DecisionUnprocessed, nil
		}
		logging.WarnWithContext(l.logger, "existing transcript unreadable", "ledger_adopt_read_failed",
			logging.String("transcript", plain),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check file permissions"),
			logging.String(logging.FieldImpact, "source will be transcribed again"),
		)
		return false, DecisionTranscriptError, nil
	}

	hash, hasHash := transcript.ParseSourceHash(data)
	switch {
	case hasHash && hash != normalizeHash(file.Hash):
		l.logger.Info("transcript belongs to different content; re-transcribing",
			logging.String(logging.FieldEventType, "ledger_adopt_mismatch"),
			logging.String(logging.FieldSource, file.Path),
			logging.String("transcript_hash", hash),
			logging.String("source_hash", file.Hash))
		return false, DecisionHashMismatch, nil
	case !hasHash && !l.opts.AdoptLegacyTranscripts:
		l.logger.Info("legacy transcript without source hash; re-transcribing",
			logging.String(logging.FieldEventType, "ledger_adopt_legacy_declined"),
			logging.String(logging.FieldSource, file.Path),
			logging.String("transcript", plain))
		return false, DecisionLegacyDeclined, nil
	}

	if _, err := l.mark(file, true); err != nil {
		return true, DecisionAdopted, err
	}
	l.logger.Info("adopted existing transcript",
		logging.String(logging.FieldEventType, "ledger_adopted"),
		logging.String(logging.FieldSource, file.Path),
		logging.Bool("legacy", !hasHash))
	return true, DecisionAdopted, nil
}

// MarkProcessed records file as processed. It is idempotent: inserted is
// false when a record with the same hash already exists.
func (l *Ledger) MarkProcessed(file SourceFile) (inserted bool, err error) {
	return l.mark(file, false)
}

func (l *Ledger) mark(file SourceFile, adopted bool) (bool, error) {
	hash := normalizeHash(file.Hash)
	if hash == "" {
		return false, services.Wrap(services.ErrValidation, "ledger", "mark", "empty content hash", nil)
	}
	inserted := false
	err := l.mutate(func(records map[string]Record) bool {
		if _, exists := records[hash]; exists {
			return false
		}
		records[hash] = Record{
			Hash:        hash,
			Name:        file.Name(),
			Dir:         file.Dir,
			Size:        file.Size,
			ProcessedAt: l.now().UTC(),
			Path:        file.Path,
			Adopted:     adopted,
		}
		inserted = true
		return true
	})
	if err != nil {
		return false, err
	}
	if inserted {
		l.logger.Debug("marked processed",
			logging.String("hash", hash),
			logging.String(logging.FieldSource, file.Path))
	}
	return inserted, nil
}

// Remove deletes the record for hash. Transcript files are left alone. An
// unknown hash returns an error wrapping services.ErrNotFound.
func (l *Ledger) Remove(hash string) error {
	hash = normalizeHash(hash)
	if hash == "" {
		return services.Wrap(services.ErrValidation, "ledger", "remove", "empty content hash", nil)
	}
	found := false
	err := l.mutate(func(records map[string]Record) bool {
		if _, ok := records[hash]; !ok {
			return false
		}
		delete(records, hash)
		found = true
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return services.Wrap(services.ErrNotFound, "ledger", "remove", fmt.Sprintf("hash %s", hash), nil)
	}
	l.logger.Debug("removed record", logging.String("hash", hash))
	return nil
}

// List returns records sorted by ProcessedAt then Hash. A non-empty dir keeps
// only records whose directory equals dir after cleaning.
func (l *Ledger) List(dir string) []Record {
	dir = strings.TrimSpace(dir)
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	l.mu.RLock()
	out := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		if dir != "" && filepath.Clean(rec.Dir) != dir {
			continue
		}
		out = append(out, rec)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProcessedAt.Equal(out[j].ProcessedAt) {
			return out[i].ProcessedAt.Before(out[j].ProcessedAt)
		}
		return out[i].Hash < out[j].Hash
	})
	return out
}

// mutate runs fn against the freshest on-disk state under both locks and
// persists the result when fn reports a change.
func (l *Ledger) mutate(fn func(records map[string]Record) bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "mkdir", "create ledger directory", err)
	}
	if err := l.fileMu.Lock(); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "lock", l.fileMu.Path(), err)
	}
	defer func() {
		_ = l.fileMu.Unlock()
	}()

	records, err := l.read()
	if err != nil {
		if !errors.Is(err, errEmpty) {
			l.warnUnreadable(err)
		}
		records = make(map[string]Record, len(l.records))
		for k, v := range l.records {
			records[k] = v
		}
	}

	if !fn(records) {
		l.records = records
		return nil
	}
	data, err := encode(records)
	if err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "encode", "", err)
	}
	if err := fileutil.WriteFileAtomic(l.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "write", l.path, err)
	}
	l.records = records
	return nil
}

// read loads records from disk. A missing file is an empty ledger.
func (l *Ledger) read() (map[string]Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]Record), nil
		}
		return nil, err
	}
	records, legacy, err := decode(data)
	if err != nil {
		return nil, err
	}
	if legacy {
		l.logger.Info("legacy ledger layout detected; it will be migrated on next write",
			logging.String(logging.FieldEventType, "ledger_legacy_format"),
			logging.Int("record_count", len(records)))
	}
	return records, nil
}

func (l *Ledger) warnUnreadable(err error) {
	if errors.Is(err, errEmpty) {
		logging.WarnWithContext(l.logger, "ledger file is empty; starting with no records", "ledger_empty",
			logging.String("path", l.path),
			logging.String(logging.FieldErrorHint, "nothing to do unless records were expected"),
			logging.String(logging.FieldImpact, "previously processed files may be transcribed again"),
		)
		return
	}
	logging.WarnWithContext(l.logger, "ledger unreadable; starting with no records", "ledger_corrupt",
		logging.String("path", l.path),
		logging.Error(services.Wrap(services.ErrLedger, "ledger", "load", "", err)),
		logging.String(logging.FieldErrorHint, "inspect or delete the ledger file; it is rewritten on the next success"),
		logging.String(logging.FieldImpact, "previously processed files may be transcribed again"),
	)
}
