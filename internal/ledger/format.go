package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

const formatVersion = 1

// Record is one processed source.
type Record struct {
	Hash        string    `json:"hash"`
	Name        string    `json:"name"`
	Dir         string    `json:"directory"`
	Size        int64     `json:"size"`
	ProcessedAt time.Time `json:"processed_at"`
	Path        string    `json:"path"`
	// Adopted marks records created from a transcript found on disk.
	Adopted bool `json:"adopted,omitempty"`
}

type document struct {
	Version int               `json:"version"`
	Records map[string]Record `json:"records"`
}

type legacyDocument struct {
	Directories map[string]struct {
		Files map[string]legacyFile `json:"files"`
	} `json:"directories"`
}

type legacyFile struct {
	Name          string  `json:"name"`
	Size          int64   `json:"size"`
	ProcessedTime float64 `json:"processed_time"`
	Path          string  `json:"path"`
}

var errEmpty = errors.New("ledger file is empty")

// decode parses either the current document or the older per-directory
// layout. legacy is true when the older layout was read.
func decode(data []byte) (records map[string]Record, legacy bool, err error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, false, errEmpty
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false, fmt.Errorf("parse ledger: %w", err)
	}
	if _, ok := probe["directories"]; ok {
		if _, current := probe["records"]; !current {
			records, err := decodeLegacy(data)
			return records, true, err
		}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parse ledger: %w", err)
	}
	records = make(map[string]Record, len(doc.Records))
	for key, rec := range doc.Records {
		hash := normalizeHash(key)
		if hash == "" {
			continue
		}
		rec.Hash = hash
		records[hash] = rec
	}
	return records, false, nil
}

func decodeLegacy(data []byte) (map[string]Record, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse legacy ledger: %w", err)
	}
	records := make(map[string]Record)
	for dir, entry := range doc.Directories {
		for key, file := range entry.Files {
			hash := normalizeHash(key)
			if hash == "" {
				continue
			}
			rec := Record{
				Hash:        hash,
				Name:        file.Name,
				Dir:         dir,
				Size:        file.Size,
				ProcessedAt: unixSeconds(file.ProcessedTime),
				Path:        file.Path,
			}
			if rec.Name == "" && rec.Path != "" {
				rec.Name = filepath.Base(rec.Path)
			}
			if existing, ok := records[hash]; ok && !existing.ProcessedAt.After(rec.ProcessedAt) {
				continue
			}
			records[hash] = rec
		}
	}
	return records, nil
}

func encode(records map[string]Record) ([]byte, error) {
	doc := document{Version: formatVersion, Records: records}
	if doc.Records == nil {
		doc.Records = map[string]Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal ledger: %w", err)
	}
	return append(data, '\n'), nil
}

func unixSeconds(v float64) time.Time {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
