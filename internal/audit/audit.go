// Package audit keeps the append-only operator audit trail in
// logs/audit-log.csv. Every state-changing command writes one row.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp  time.Time
	SessionID  string
	OperatorID string
	Action     string
	Details    string
	Reference  string // account number or transaction ID the action touched
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,session_id,operator_id,action,details,reference"

// FilePath is the audit log location relative to the workspace root.
const FilePath = "logs/audit-log.csv"

const (
	numFields     = 6
	logDir        = "logs"
	colTimestamp  = 0
	colSessionID  = 1
	colOperatorID = 2
	colAction     = 3
	colDetails    = 4
	colReference  = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colSessionID] = e.SessionID
	row[colOperatorID] = e.OperatorID
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colReference] = e.Reference
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:  ts,
		SessionID:  record[colSessionID],
		OperatorID: record[colOperatorID],
		Action:     record[colAction],
		Details:    record[colDetails],
		Reference:  record[colReference],
	}, nil
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and
// header if needed. Existing rows are never rewritten.
func Append(root string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, FilePath)
	needsHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing audit log: %w", err)
	}
	return f.Close()
}

// Read returns all entries from <root>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, FilePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// ReadEntries parses an audit log CSV, header included.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Filter returns the entries recorded by operatorID. An empty operatorID
// matches everything.
func Filter(entries []Entry, operatorID string) []Entry {
	if operatorID == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if e.OperatorID == operatorID {
			out = append(out, e)
		}
	}
	return out
}
