package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/budgetbook/budgetbook/internal/categorize"
)

// FileName is the config file created by `budgetbook init`.
const FileName = "budgetbook.yaml"

// EnvPrefix prefixes environment overrides, e.g. BUDGETBOOK_IMPORT_WORKERS.
const EnvPrefix = "BUDGETBOOK"

// Output formats accepted by output.format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

var formats = []string{FormatTable, FormatJSON, FormatCSV}

// Config represents the top-level budgetbook.yaml configuration.
type Config struct {
	Log        LogConfig         `yaml:"log" mapstructure:"log"`
	Import     ImportConfig      `yaml:"import" mapstructure:"import"`
	Output     OutputConfig      `yaml:"output" mapstructure:"output"`
	Categories []categorize.Rule `yaml:"categories" mapstructure:"categories"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// ImportConfig controls batch imports.
type ImportConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"` // workspace holding import/, exports/ and logs/
	Workers int    `yaml:"workers" mapstructure:"workers"`
	Archive bool   `yaml:"archive" mapstructure:"archive"`
}

// OutputConfig controls how parse results are printed.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads a budgetbook.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Import: ImportConfig{
			Dir:     ".",
			Workers: 4,
		},
		Output: OutputConfig{
			Format: FormatTable,
		},
		Categories: categorize.DefaultRules(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains(formats, c.Output.Format) {
		return fmt.Errorf("output.format %q: want one of %s", c.Output.Format, strings.Join(formats, ", "))
	}
	if c.Import.Workers < 1 {
		return fmt.Errorf("import.workers must be at least 1, got %d", c.Import.Workers)
	}
	return nil
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"workers":   "import.workers",
	"archive":   "import.archive",
	"format":    "output.format",
}

// Build layers defaults, the YAML file at path (skipped when absent),
// BUDGETBOOK_* environment variables and any changed flags, in increasing
// precedence. An empty path means FileName in the working directory.
func Build(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = FileName
	}

	v := viper.New()
	def := Default()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("import.dir", def.Import.Dir)
	v.SetDefault("import.workers", def.Import.Workers)
	v.SetDefault("import.archive", def.Import.Archive)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("categories", def.Categories)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
