// Package cmd implements the avd command line: the HTTP server plus the
// operator tools for reading the audit trail, checking payloads and minting
// development tokens.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"avd/internal/platform/config"
	"avd/internal/platform/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "avd",
	Short: "Data integrity and audit service for personnel records",
	Long: `avd guards every write to employees, evaluation cycles and evaluations:
rate limiting, authorization, validation, referential checks and an
append-only audit trail.

Configuration comes from an optional YAML file (--config) with environment
variables taking precedence.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (optional)")
}

// loadConfig reads the configuration and joins every problem into one error.
func loadConfig() (*config.Config, error) {
	cfg, errs := config.Load(cfgFile)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Log.Level, cfg.Log.Format)
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
