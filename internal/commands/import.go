package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"github.com/budgetbook/budgetbook/internal/categorize"
	"github.com/budgetbook/budgetbook/internal/config"
	"github.com/budgetbook/budgetbook/internal/export"
	"github.com/budgetbook/budgetbook/internal/importer"
	"github.com/budgetbook/budgetbook/internal/importlog"
	"github.com/budgetbook/budgetbook/internal/model"
)

// exportsDir holds one CSV export per imported statement.
const exportsDir = "exports"

func newImportCommand(env envLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [directory]",
		Short: "Import every statement waiting in <directory>/import",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env(cmd)
			if err != nil {
				return err
			}

			dir := cfg.Import.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runImport(cmd, absDir, cfg, logger)
		},
	}

	cmd.Flags().Int("workers", config.Default().Import.Workers, "number of statements parsed in parallel")
	cmd.Flags().Bool("archive", false, "move imported statements to import/processed")

	return cmd
}

func runImport(cmd *cobra.Command, dir string, cfg *config.Config, logger *log.Logger) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p := importer.New(importer.WithLogger(logger))
	files, err := p.Registry().Scan(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No statements to import in %s\n", filepath.Join(dir, "import"))
		return nil
	}
	logger.Info("importing statements", "dir", dir, "files", len(files), "workers", cfg.Import.Workers)

	mapper := iter.Mapper[importer.FileInfo, model.ParseResult]{MaxGoroutines: cfg.Import.Workers}
	results := mapper.Map(files, func(f *importer.FileInfo) model.ParseResult {
		return p.ParseFile(ctx, f.Path)
	})

	cat := categorize.New(cfg.Categories)
	entries := make([]importlog.Entry, 0, len(results))
	var errs []error
	failed := 0
	for i, res := range results {
		entries = append(entries, importlog.FromResult(res, time.Now().UTC()))
		if !res.Success {
			failed++
			logger.Warn("statement not imported", "file", res.Filename, "warnings", len(res.Warnings))
			reportFile(out, res, "")
			continue
		}

		categorize.Apply(cat, res.Transactions)
		exportPath := filepath.Join(dir, exportsDir, exportName(res.Filename))
		if err := (export.CSVSink{Path: exportPath}).Store(ctx, res.Transactions); err != nil {
			logger.Warn("export failed", "file", res.Filename, "err", err)
			errs = append(errs, fmt.Errorf("exporting %s: %w", res.Filename, err))
			reportFile(out, res, "")
			continue
		}
		if cfg.Import.Archive {
			if err := importer.MarkProcessed(dir, files[i].Name); err != nil {
				errs = append(errs, err)
			}
		}
		reportFile(out, res, exportPath)
	}

	if err := importlog.Append(dir, entries); err != nil {
		errs = append(errs, err)
	}
	if failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d statements could not be imported", failed, len(files)))
	}
	return errors.Join(errs...)
}

func reportFile(w io.Writer, res model.ParseResult, exportPath string) {
	fmt.Fprintln(w, summary(res))
	for _, msg := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", msg)
	}
	if exportPath != "" {
		fmt.Fprintf(w, "  exported to %s\n", exportPath)
	}
}

// exportName keeps the source extension in the export name so june.csv and
// june.xlsx do not collide.
func exportName(statement string) string {
	ext := filepath.Ext(statement)
	stem := strings.TrimSuffix(statement, ext)
	return stem + "_" + strings.ToLower(strings.TrimPrefix(ext, ".")) + ".csv"
}
