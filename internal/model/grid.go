package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind classifies a decoded cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one raw value from a decoded statement file.
type Cell struct {
	Kind   CellKind
	Text   string          // set for CellText
	Number decimal.Decimal // set for CellNumber
}

// TextCell returns a text cell, or an empty cell when s is "".
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Number: d}
}

// String renders the cell the way a user would read it in the source file.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.String()
	default:
		return ""
	}
}

// IsBlank reports whether the cell holds nothing but whitespace.
func (c Cell) IsBlank() bool {
	return c.Kind == CellEmpty || strings.TrimSpace(c.String()) == ""
}

// Row is one decoded line of a statement file.
type Row []Cell

// At returns the cell at i, or an empty cell when i is outside the row.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Strings renders every cell of the row as text.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

// Grid is the row-major view of a decoded file. Row 0 is the header.
type Grid []Row
