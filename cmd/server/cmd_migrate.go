package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safereport/backend/internal/config"
	"github.com/safereport/backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the reports table and indexes in Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		logger := newLogger(cfg)
		pg, err := db.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
		return nil
	},
}
