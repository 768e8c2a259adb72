package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Prefix is stamped on every record.
const Prefix = "budgetbook"

// New returns a logger writing to w at the named level ("debug", "info",
// "warn" or "error"). An empty level means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		lvl, err = log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          Prefix,
		Level:           lvl,
	}), nil
}
