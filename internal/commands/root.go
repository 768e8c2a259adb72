package commands

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/budgetbook/budgetbook/internal/buildinfo"
	"github.com/budgetbook/budgetbook/internal/config"
	"github.com/budgetbook/budgetbook/internal/logging"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "budgetbook",
		Short:   "Import bank statements into a personal budget",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	env := func(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
		return loadEnv(cmd, configPath)
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newParseCommand(env))
	rootCmd.AddCommand(newImportCommand(env))
	rootCmd.AddCommand(newProfilesCommand())

	return rootCmd
}

// envLoader resolves the layered config and a logger for a command run.
type envLoader func(cmd *cobra.Command) (*config.Config, *log.Logger, error)

func loadEnv(cmd *cobra.Command, configPath string) (*config.Config, *log.Logger, error) {
	cfg, err := config.Build(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
