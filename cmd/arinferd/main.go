package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"arinfer/internal/common/fsutil"
	"arinfer/internal/config"
	"arinfer/internal/logging"
)

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "arinferd",
		Short:         "Distributed inference coordinator for AR glasses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", os.Getenv("ARINFER_CONFIG"), "Path to a .yaml, .json or .toml config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json (overrides config)")

	cmd.AddCommand(newServeCmd(opts), newInferCmd(opts))
	return cmd
}

// load reads the named config file (or the first default location that
// exists), applies flag overrides and defaults, and validates the result.
func (o *rootOptions) load() (config.Config, error) {
	var cfg config.Config
	path, err := fsutil.ResolveConfigPath(o.configPath, fsutil.DefaultConfigPaths...)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg config.Config) zerolog.Logger {
	return logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}

// splitCSV splits a comma-separated flag value, dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
