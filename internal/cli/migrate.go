package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SscSPs/estate_ledger_core/internal/platform/config"
	"github.com/SscSPs/estate_ledger_core/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply or roll back the PostgreSQL schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(database.Up), string(database.Down)},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate needs STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, cfg.StoreDriver)
	}

	_, err = database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, database.Direction(args[0]), logger)
	return err
}
