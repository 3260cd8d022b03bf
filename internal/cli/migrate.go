package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply the embedded SQL migrations to the Postgres database configured in
database.url (ATSOPTIMIZER_DATABASE_URL). Migrations run under an advisory
lock, so concurrent invocations are safe.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		if cfg.Database.URL == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "database.url is not configured", nil)
		}

		pg, err := store.NewPostgres(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := pg.Close(); err != nil {
				logger.Warn("Failed to close database", "error", err)
			}
		}()

		applied, err := pg.Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations complete", "applied", applied)
		return nil
	},
}
