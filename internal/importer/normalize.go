package importer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/budgetbook/budgetbook/internal/model"
)

// ErrSkipRow marks a row with no description or a zero amount. It is not a warning.
var ErrSkipRow = errors.New("row has no description or amount")

// leadingNumber matches the numeric prefix of a cleaned amount.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// currencyPrefix matches an ISO code ("USD 12") or letters glued to a
// currency symbol ("R$", "C$") in front of an amount.
var currencyPrefix = regexp.MustCompile(`^\s*([-+(]?)\s*(?:[A-Z]{3}|[A-Za-z]{1,2}\p{Sc})`)

// dateSeparators splits day, month and year fields.
var dateSeparators = regexp.MustCompile(`[/.\-]`)

// directLayouts are tried before the numeric day/month/year split.
var directLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Mon, 02 Jan 2006",
}

// Excel serial day numbers outside this range are not dates.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// Normalizer turns raw rows into candidates for one file.
type Normalizer struct {
	cols  ColumnMap
	notes string
	now   func() time.Time
}

// NewNormalizer creates a Normalizer. source is the statement filename, used
// for the provenance note; now supplies the fallback date.
func NewNormalizer(cols ColumnMap, source string, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	n := &Normalizer{cols: cols, now: now}
	if source != "" {
		n.notes = "Imported from " + source
	}
	return n
}

// Normalize converts one data row. It returns ErrSkipRow for rows without a
// description or with a zero amount.
func (n *Normalizer) Normalize(row model.Row) (model.Candidate, error) {
	desc := strings.TrimSpace(row.At(n.cols.Description).String())
	amount := NormalizeAmount(row.At(n.cols.Amount))
	if desc == "" || amount.IsZero() {
		return model.Candidate{}, ErrSkipRow
	}

	var category string
	if n.cols.Category != NotFound {
		category = strings.TrimSpace(row.At(n.cols.Category).String())
	}

	return model.Candidate{
		Date:        NormalizeDate(row.At(n.cols.Date), n.today()),
		Description: desc,
		Amount:      amount,
		Category:    category,
		Notes:       n.notes,
	}, nil
}

func (n *Normalizer) today() time.Time {
	y, m, d := n.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeAmount returns the magnitude of an amount cell. Blank, "-" and
// unparsable values are zero.
func NormalizeAmount(c model.Cell) decimal.Decimal {
	switch c.Kind {
	case model.CellNumber:
		return c.Number.Abs()
	case model.CellEmpty:
		return decimal.Zero
	}

	text := currencyPrefix.ReplaceAllString(c.Text, "$1")
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Sc, r), unicode.IsSpace(r):
			return -1
		}
		switch r {
		case ',', '(', ')', '"', '\'', '“', '”', '‘', '’':
			return -1
		}
		return r
	}, text)

	if clean == "" || clean == "-" {
		return decimal.Zero
	}
	num := strings.TrimPrefix(leadingNumber.FindString(clean), "+")
	if num == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}

// NormalizeDate reads a date cell. Text is tried against directLayouts, then
// split into month/day/year (falling back to day/month/year). Anything that
// does not yield a valid calendar date becomes today.
func NormalizeDate(c model.Cell, today time.Time) time.Time {
	if c.Kind == model.CellNumber {
		if t, ok := excelSerialDate(c.Number); ok {
			return t
		}
	}

	s := strings.TrimSpace(c.String())
	if s == "" {
		return today
	}
	for _, layout := range directLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t.Date())
		}
	}
	if t, ok := splitDate(strings.Fields(s)[0]); ok {
		return t
	}
	return today
}

func excelSerialDate(d decimal.Decimal) (time.Time, bool) {
	f := d.InexactFloat64()
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return calendarDate(t.Date()), true
}

// splitDate reads "a/b/c" style dates. A four-digit first field means
// year/month/day; otherwise month/day/year is tried before day/month/year.
func splitDate(s string) (time.Time, bool) {
	parts := dateSeparators.Split(s, -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || strings.HasPrefix(p, "+") {
			return time.Time{}, false
		}
		nums[i] = n
	}

	if len(parts[0]) == 4 {
		return validDate(nums[0], nums[1], nums[2])
	}
	year := expandYear(nums[2], len(parts[2]))
	if t, ok := validDate(year, nums[0], nums[1]); ok {
		return t, true
	}
	return validDate(year, nums[1], nums[0])
}

// expandYear maps two-digit years onto 1969-2068.
func expandYear(y, digits int) int {
	if digits > 2 {
		return y
	}
	if y >= 69 {
		return 1900 + y
	}
	return 2000 + y
}

func validDate(year, month, day int) (time.Time, bool) {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := calendarDate(year, time.Month(month), day)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func calendarDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
