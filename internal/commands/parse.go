package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/budgetbook/budgetbook/internal/categorize"
	"github.com/budgetbook/budgetbook/internal/config"
	"github.com/budgetbook/budgetbook/internal/export"
	"github.com/budgetbook/budgetbook/internal/importer"
)

func newParseCommand(env envLoader) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse one statement file and print the transactions found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env(cmd)
			if err != nil {
				return err
			}

			p := importer.New(importer.WithLogger(logger))
			res := p.ParseFile(cmd.Context(), args[0])
			categorize.Apply(categorize.New(cfg.Categories), res.Transactions)

			if err := writeResult(cmd.OutOrStdout(), res, cfg.Output.Format); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("no transactions imported from %s", res.Filename)
			}

			if outPath != "" {
				if err := (export.CSVSink{Path: outPath}).Store(cmd.Context(), res.Transactions); err != nil {
					return err
				}
				logger.Info("exported transactions", "file", outPath, "count", len(res.Transactions))
			}
			return nil
		},
	}

	cmd.Flags().String("format", config.FormatTable, "output format: table, json, csv")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the transactions as CSV to this file")

	return cmd
}
