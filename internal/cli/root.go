// Package cli wires configuration, storage and the HTTP server behind cobra commands.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SscSPs/estate_ledger_core/internal/platform/config"
)

var rootCmd = &cobra.Command{
	Use:   "ledger_core",
	Short: "Account ledger and installment allocation service",
	Long: `ledger_core keeps a double-entry ledger and the payment plans of
property deals, allocating incoming receipts to installments oldest first.

Example:
  ledger_core serve
  ledger_core migrate up`,
	SilenceUsage: true,
}

// Execute runs the command named on the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// newLogger builds the JSON process logger at cfg.LogLevel and installs it as default.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
