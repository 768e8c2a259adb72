package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/budgetbook/budgetbook/internal/model"
)

// ErrUnsupportedFormat is returned for files with no registered decoder.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// errNoSheets is returned for workbooks without a first sheet.
var errNoSheets = errors.New("workbook has no sheets")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// xlsCharset is used for legacy workbooks that store non-unicode strings.
const xlsCharset = "cp1252"

// plainNumber matches spreadsheet values stored as bare numbers.
var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// Decode picks a decoder by filename extension and decodes data.
func (r *Registry) Decode(filename string, data []byte) (model.Grid, error) {
	d := r.Lookup(filename)
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	return d.Decode(data)
}

// CSVDecoder reads comma-separated text.
type CSVDecoder struct{}

// Extensions returns the extensions handled by CSVDecoder.
func (CSVDecoder) Extensions() []string { return []string{".csv"} }

// Decode reads every record. Blank lines are dropped and header cells trimmed.
// A stray quote inside an unquoted field ("12\" SUB") is kept as text; an
// unterminated quoted field is an error.
func (CSVDecoder) Decode(data []byte) (model.Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := readCSV(data, false)
	if errors.Is(err, csv.ErrBareQuote) {
		records, err = readCSV(data, true)
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	grid := make(model.Grid, 0, len(records))
	for i, rec := range records {
		row := make(model.Row, len(rec))
		for j, field := range rec {
			if i == 0 {
				field = strings.TrimSpace(field)
			}
			row[j] = model.TextCell(field)
		}
		grid = append(grid, row)
	}
	return grid, nil
}

func readCSV(data []byte, lazyQuotes bool) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazyQuotes
	return cr.ReadAll()
}

// XLSXDecoder reads the first sheet of an Office Open XML workbook.
type XLSXDecoder struct{}

// Extensions returns the extensions handled by XLSXDecoder.
func (XLSXDecoder) Extensions() []string { return []string{".xlsx"} }

// Decode reads the raw (unformatted) values of the first sheet.
func (XLSXDecoder) Decode(data []byte) (model.Grid, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer xl.Close()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		return nil, errNoSheets
	}
	rawRows, err := xl.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	grid := make(model.Grid, 0, len(rawRows))
	for _, raw := range rawRows {
		row := make(model.Row, len(raw))
		for j, v := range raw {
			row[j] = spreadsheetCell(v)
		}
		grid = append(grid, row)
	}
	return trimTrailingEmpty(grid), nil
}

// XLSDecoder reads the first sheet of a legacy BIFF workbook.
type XLSDecoder struct{}

// Extensions returns the extensions handled by XLSDecoder.
func (XLSDecoder) Extensions() []string { return []string{".xls"} }

// Decode reads the first sheet. The xls reader panics on some corrupt
// files; that is reported as an error.
func (XLSDecoder) Decode(data []byte) (grid model.Grid, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			grid, err = nil, fmt.Errorf("reading workbook: %v", rec)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), xlsCharset)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errNoSheets
	}

	grid = make(model.Grid, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		xr := xlsRow(sheet, i)
		if xr == nil {
			grid = append(grid, model.Row{})
			continue
		}
		row := make(model.Row, 0, xr.LastCol())
		for j := 0; j < xr.LastCol(); j++ {
			row = append(row, spreadsheetCell(xr.Col(j)))
		}
		grid = append(grid, row)
	}
	return trimTrailingEmpty(grid), nil
}

// xlsRow returns row i, or nil when the sheet holds no record for it.
// The xls reader dereferences missing rows, so that panic is recovered here.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// spreadsheetCell classifies a raw spreadsheet value.
func spreadsheetCell(v string) model.Cell {
	if plainNumber.MatchString(v) {
		if d, err := decimal.NewFromString(v); err == nil {
			return model.NumberCell(d)
		}
	}
	return model.TextCell(v)
}

// trimTrailingEmpty drops blank rows at the end of a sheet.
func trimTrailingEmpty(grid model.Grid) model.Grid {
	end := len(grid)
	for end > 0 && isEmptyRow(grid[end-1]) {
		end--
	}
	return grid[:end]
}

// isEmptyRow checks if all cells are blank.
func isEmptyRow(row model.Row) bool {
	for _, c := range row {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}
