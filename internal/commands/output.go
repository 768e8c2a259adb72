package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/budgetbook/budgetbook/internal/config"
	"github.com/budgetbook/budgetbook/internal/export"
	"github.com/budgetbook/budgetbook/internal/model"
)

// jsonTransaction is the JSON shape of a candidate.
type jsonTransaction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// jsonResult is the JSON shape of a parse result.
type jsonResult struct {
	Filename     string            `json:"filename"`
	Profile      string            `json:"profile,omitempty"`
	Success      bool              `json:"success"`
	TotalRows    int               `json:"total_rows"`
	ValidRows    int               `json:"valid_rows"`
	Transactions []jsonTransaction `json:"transactions"`
	Warnings     []string          `json:"warnings"`
}

func writeResult(w io.Writer, res model.ParseResult, format string) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, res)
	case config.FormatCSV:
		return export.WriteCandidates(w, res.Transactions)
	case config.FormatTable:
		return writeTable(w, res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, res model.ParseResult) error {
	out := jsonResult{
		Filename:     res.Filename,
		Profile:      res.Profile,
		Success:      res.Success,
		TotalRows:    res.TotalRows,
		ValidRows:    res.ValidRows,
		Transactions: make([]jsonTransaction, 0, len(res.Transactions)),
		Warnings:     res.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	for _, txn := range res.Transactions {
		out.Transactions = append(out.Transactions, jsonTransaction{
			Date:        txn.ISODate(),
			Description: txn.Description,
			Amount:      txn.Amount.StringFixed(2),
			Category:    txn.Category,
			Notes:       txn.Notes,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, res model.ParseResult) error {
	if len(res.Transactions) > 0 {
		rows := make([][]string, 0, len(res.Transactions))
		for _, txn := range res.Transactions {
			rows = append(rows, []string{txn.ISODate(), txn.Description, txn.Amount.StringFixed(2), txn.Category})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("DATE", "DESCRIPTION", "AMOUNT", "CATEGORY").
			Rows(rows...)
		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, summary(res)); err != nil {
		return err
	}
	for _, msg := range res.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}

// summary is the one-line outcome of a parse.
func summary(res model.ParseResult) string {
	profile := res.Profile
	if profile == "" {
		profile = "none"
	}
	return fmt.Sprintf("%s: %d of %d rows imported (profile %s)", res.Filename, res.ValidRows, res.TotalRows, profile)
}
