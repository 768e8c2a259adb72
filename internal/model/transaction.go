package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used for candidates.
const DateFormat = "2006-01-02"

// Candidate is a normalized transaction produced from one statement row.
// Persistence decisions (category linking, account ownership) belong to the caller.
type Candidate struct {
	Date        time.Time // calendar date, midnight UTC
	Description string
	Amount      decimal.Decimal // always >= 0
	Category    string          // label suggested by the statement, "" when absent
	Notes       string          // provenance, e.g. "Imported from june.csv"
}

// ISODate returns the candidate date as YYYY-MM-DD.
func (c Candidate) ISODate() string {
	return c.Date.Format(DateFormat)
}

// ParseResult is the outcome of one statement parse attempt.
type ParseResult struct {
	Filename     string
	Profile      string // detected header profile, "" when parsing stopped before inference
	Success      bool
	Transactions []Candidate
	Warnings     []string
	TotalRows    int
	ValidRows    int
}
