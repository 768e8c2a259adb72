package importlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/budgetbook/budgetbook/internal/model"
)

// Entry records one statement parse attempt.
type Entry struct {
	ID        string
	Timestamp time.Time
	File      string
	Profile   string
	TotalRows int
	ValidRows int
	Success   bool
	Warnings  []string
}

// Header is the CSV header for import-log.csv.
const Header = "id,timestamp,file,profile,total_rows,valid_rows,success,warnings"

const (
	numFields    = 8
	logDir       = "logs"
	logFile      = "logs/import-log.csv"
	warnSep      = " | "
	colID        = 0
	colTimestamp = 1
	colFile      = 2
	colProfile   = 3
	colTotal     = 4
	colValid     = 5
	colSuccess   = 6
	colWarnings  = 7
)

// FromResult builds an entry for res with a fresh ID.
func FromResult(res model.ParseResult, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: at,
		File:      res.Filename,
		Profile:   res.Profile,
		TotalRows: res.TotalRows,
		ValidRows: res.ValidRows,
		Success:   res.Success,
		Warnings:  res.Warnings,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colFile] = e.File
	row[colProfile] = e.Profile
	row[colTotal] = strconv.Itoa(e.TotalRows)
	row[colValid] = strconv.Itoa(e.ValidRows)
	row[colSuccess] = strconv.FormatBool(e.Success)
	row[colWarnings] = strings.Join(e.Warnings, warnSep)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	if _, err := uuid.Parse(record[colID]); err != nil {
		return Entry{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	total, err := strconv.Atoi(record[colTotal])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing total_rows %q: %w", record[colTotal], err)
	}
	valid, err := strconv.Atoi(record[colValid])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing valid_rows %q: %w", record[colValid], err)
	}
	success, err := strconv.ParseBool(record[colSuccess])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing success %q: %w", record[colSuccess], err)
	}

	var warnings []string
	if record[colWarnings] != "" {
		warnings = strings.Split(record[colWarnings], warnSep)
	}

	return Entry{
		ID:        record[colID],
		Timestamp: ts,
		File:      record[colFile],
		Profile:   record[colProfile],
		TotalRows: total,
		ValidRows: valid,
		Success:   success,
		Warnings:  warnings,
	}, nil
}

// Append writes entries to <dir>/logs/import-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
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
	return cw.Error()
}

// Read returns all entries from <dir>/logs/import-log.csv.
// A missing log yields no entries.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
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
