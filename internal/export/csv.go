package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetbook/budgetbook/internal/model"
)

// Header is the CSV header for exported candidates.
const Header = "date,description,amount,category,notes"

const (
	numFields = 5
	colDate   = 0
	colDesc   = 1
	colAmount = 2
	colCat    = 3
	colNotes  = 4
)

// WriteCandidates writes candidates to w, header first.
func WriteCandidates(w io.Writer, txns []model.Candidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalCandidate(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCandidates reads an export written by WriteCandidates.
func ReadCandidates(r io.Reader) ([]model.Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading export CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Candidate
	for i, rec := range records[1:] {
		txn, err := UnmarshalCandidate(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// MarshalCandidate converts a Candidate to a CSV row.
func MarshalCandidate(txn model.Candidate) []string {
	row := make([]string, numFields)
	row[colDate] = txn.ISODate()
	row[colDesc] = txn.Description
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colCat] = txn.Category
	row[colNotes] = txn.Notes
	return row
}

// UnmarshalCandidate converts a CSV row to a Candidate.
func UnmarshalCandidate(record []string) (model.Candidate, error) {
	if len(record) != numFields {
		return model.Candidate{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.Candidate{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Candidate{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.Candidate{
		Date:        date,
		Description: record[colDesc],
		Amount:      amount,
		Category:    record[colCat],
		Notes:       record[colNotes],
	}, nil
}

// CSVSink stores candidates as a CSV file at Path, replacing any previous export.
type CSVSink struct {
	Path string
}

// Store writes txns to the sink's file.
func (s CSVSink) Store(ctx context.Context, txns []model.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}
	if err := WriteCandidates(f, txns); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}
	return nil
}
