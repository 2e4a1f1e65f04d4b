// Package outlog is the append-only record of send attempts, persisted as a
// CSV table. The whole file is rewritten after every append; per-entry cost is
// O(total entries), acceptable at the scale of a personal outreach run.
package outlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status values for a send attempt.
const (
	StatusSent   = "SENT"
	StatusFailed = "FAILED"
)

// PreviewLimit is the number of characters of the rendered body kept in a
// log entry.
const PreviewLimit = 1000

// timeLayout is second-precision ISO-8601 with a space separator.
const timeLayout = "2006-01-02 15:04:05"

// columns is the fixed persisted column set, in order.
var columns = []string{"Timestamp", "Agency", "Email", "Status", "Error", "MessagePreview"}

// Entry is one send attempt. Error is empty on success.
type Entry struct {
	Timestamp      time.Time `json:"timestamp"`
	Agency         string    `json:"agency"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	Error          string    `json:"error"`
	MessagePreview string    `json:"message_preview"`
}

// Log is the in-memory ordered log backed by a CSV file. It is safe for
// concurrent use; the file itself assumes a single writer process.
type Log struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	log     zerolog.Logger
}

// Open creates a Log backed by the CSV file at path. An existing file is
// loaded; a missing or unparseable file yields an empty log rather than an
// error, so a corrupt log never blocks startup.
func Open(path string, logger zerolog.Logger) *Log {
	l := &Log{path: path, log: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("could not read outreach log, starting empty")
		}
		return l
	}

	entries, err := parseCSV(data)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not parse outreach log, starting empty")
		return l
	}
	l.entries = entries
	return l
}

// Append adds one entry and immediately persists the full log. The in-memory
// log stays authoritative even when persistence fails; the returned error is
// informational and callers treat it as a non-fatal warning.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.MessagePreview = Truncate(e.MessagePreview, PreviewLimit)
	l.entries = append(l.entries, e)

	if err := l.persistLocked(); err != nil {
		l.log.Warn().Err(err).Str("path", l.path).Msg("could not save outreach log to disk")
		return err
	}
	return nil
}

// Entries returns a copy of the current entries in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Counts tallies entries by status.
func (l *Log) Counts() (sent, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		switch e.Status {
		case StatusSent:
			sent++
		case StatusFailed:
			failed++
		}
	}
	return sent, failed
}

// Clear deletes the persisted file and resets the in-memory log to zero rows.
// The column set is unchanged, so a subsequent export still carries the header.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("outlog: remove log file: %w", err)
	}
	return nil
}

// ExportCSV serializes the full log, header included, without mutating it.
func (l *Log) ExportCSV() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return marshalCSV(l.entries)
}

// persistLocked rewrites the whole file atomically: write a temp file in the
// same directory, then rename over the target (rename is atomic on POSIX).
// Callers must hold l.mu.
func (l *Log) persistLocked() error {
	data, err := marshalCSV(l.entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("outlog: create log directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-outlog-*")
	if err != nil {
		return fmt.Errorf("outlog: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("outlog: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("outlog: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("outlog: rename temp file: %w", err)
	}
	return nil
}

func marshalCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("outlog: write header: %w", err)
	}
	for _, e := range entries {
		rec := []string{
			e.Timestamp.Format(timeLayout),
			e.Agency,
			e.Email,
			e.Status,
			e.Error,
			e.MessagePreview,
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("outlog: write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("outlog: flush: %w", err)
	}
	return buf.Bytes(), nil
}

func parseCSV(data []byte) ([]Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("outlog: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records[0]) != len(columns) {
		return nil, fmt.Errorf("outlog: unexpected column count %d", len(records[0]))
	}

	entries := make([]Entry, 0, len(records)-1)
	for _, rec := range records[1:] {
		ts, err := time.ParseInLocation(timeLayout, rec[0], time.Local)
		if err != nil {
			return nil, fmt.Errorf("outlog: parse timestamp %q: %w", rec[0], err)
		}
		entries = append(entries, Entry{
			Timestamp:      ts,
			Agency:         rec[1],
			Email:          rec[2],
			Status:         rec[3],
			Error:          rec[4],
			MessagePreview: rec[5],
		})
	}
	return entries, nil
}

// Truncate returns the first limit characters of s, counting runes so a
// multi-byte character is never split.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
