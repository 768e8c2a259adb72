package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/budgetbook/budgetbook/internal/model"
)

// Messages reported in ParseResult.Warnings.
const (
	msgUnsupported = "Unsupported file format. Please use CSV, XLS, or XLSX files."
	msgNoData      = "File appears to be empty or has no data rows."
	msgNoValid     = "No valid transactions found in the file."
)

// Parser runs the decode, infer and normalize steps for statement files.
// It holds no per-file state and is safe for concurrent use.
type Parser struct {
	registry *Registry
	logger   *log.Logger
	now      func() time.Time

	// normalize converts one data row; replaced in tests.
	normalize func(n *Normalizer, row model.Row) (model.Candidate, error)
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug and row-level diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithClock sets the source of "today" for rows whose date cannot be read.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithRegistry replaces the default decoder registry.
func WithRegistry(r *Registry) Option {
	return func(p *Parser) { p.registry = r }
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		registry:  DefaultRegistry(),
		now:       time.Now,
		normalize: (*Normalizer).Normalize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Registry returns the decoder registry in use.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// ParseFile reads path and parses it. Files without a registered extension are
// rejected before any read. Cancelling ctx aborts the read, which is reported
// like any other unreadable file.
func (p *Parser) ParseFile(ctx context.Context, path string) model.ParseResult {
	name := filepath.Base(path)
	if !p.registry.Supports(name) {
		return model.ParseResult{Filename: name, Warnings: []string{msgUnsupported}}
	}
	data, err := readFile(ctx, path)
	if err != nil {
		p.logger.Warn("reading statement failed", "file", path, "err", err)
		return model.ParseResult{
			Filename: name,
			Warnings: []string{fmt.Sprintf("Failed to read file: %v", err)},
		}
	}
	return p.Parse(name, data)
}

// Parse decodes data, infers its columns and normalizes every data row.
// It never fails: every problem is reported in the result.
func (p *Parser) Parse(filename string, data []byte) model.ParseResult {
	res := model.ParseResult{Filename: filename}

	grid, err := p.decode(filename, data)
	if err != nil {
		res.Warnings = decodeWarnings(err)
		p.logger.Debug("decode failed", "file", filename, "err", err)
		return res
	}

	if len(grid) < 2 {
		res.Warnings = append(res.Warnings, msgNoData)
		return res
	}

	headers := grid[0].Strings()
	rows := grid[1:]
	res.TotalRows = len(rows)

	profile := DetectProfile(headers)
	cols := InferColumns(headers, profile)
	res.Profile = string(profile)
	p.logger.Debug("inferred columns", "file", filename, "profile", profile,
		"date", cols.Date, "description", cols.Description, "amount", cols.Amount, "category", cols.Category)

	if missing := cols.Missing(); len(missing) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Could not find required columns. Expected: Date, Description, Amount. Found headers: %s",
			strings.Join(headers, ", ")))
		return res
	}

	n := NewNormalizer(cols, filename, p.now)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := i + 2 // header is line 1
		txn, err := p.normalizeRow(n, row)
		switch {
		case err == nil:
			res.Transactions = append(res.Transactions, txn)
		case errors.Is(err, ErrSkipRow):
			// counted in TotalRows only
		default:
			p.logger.Warn("skipping row", "file", filename, "line", line, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("Row %d: %v", line, err))
		}
	}

	res.ValidRows = len(res.Transactions)
	res.Success = res.ValidRows > 0
	if !res.Success {
		res.Warnings = append(res.Warnings, msgNoValid)
	}
	return res
}

func (p *Parser) decode(filename string, data []byte) (grid model.Grid, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			grid, err = nil, fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	return p.registry.Decode(filename, data)
}

func (p *Parser) normalizeRow(n *Normalizer, row model.Row) (txn model.Candidate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			txn, err = model.Candidate{}, fmt.Errorf("%v", rec)
		}
	}()
	return p.normalize(n, row)
}

// decodeWarnings turns a decode error into user-facing messages.
func decodeWarnings(err error) []string {
	if errors.Is(err, ErrUnsupportedFormat) {
		return []string{msgUnsupported}
	}
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return []string{perr.Error()}
	}
	return []string{fmt.Sprintf("Failed to parse file: %v", err)}
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(ctxReader{ctx: ctx, r: f})
}

// ctxReader stops reading once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
