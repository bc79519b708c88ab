package main

import (
	"context"

	"taskflow/internal/config"
	"taskflow/internal/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and grant the application role",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		return applyMigrations(cmd.Context(), cfg, log)
	},
}

// applyMigrations runs as DB_OWNER_USER, then grants DB_USER access to the
// row-policy tables.
func applyMigrations(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log = log.Named("migrate")
	if err := migrations.Up(cfg.MigrateURL(), log); err != nil {
		return err
	}
	if cfg.SharedRole() {
		log.Warn("DB_USER equals DB_OWNER_USER, skipping grants; row policies are not enforced by the database")
		return nil
	}
	return migrations.GrantApp(ctx, cfg.OwnerDSN(), cfg.DBUser, log)
}
