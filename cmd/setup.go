package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/vibra/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = "config.toml"
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set api.base_url (or %s) to point at your Vibra API.\n", shared.EnvAPIURL)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	if path == "" {
		return fmt.Errorf("%w: database.path is not set", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", path)

	db := r.db
	if db == nil {
		var err error
		if db, err = shared.NewDatabase(path); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ Database ready at %s (schema version %d)\n", path, version)

	if _, err := os.Stat(r.configPath); r.configPath != "" && err != nil {
		r.writePlain("No config file found; run 'vibra setup config' to create one.\n")
	}
	return nil
}

// SetupRollback reverts the most recent migration of the configured database.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: no local database configured", shared.ErrServiceUnavailable)
	}
	if err := shared.RollbackMigration(r.db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	version, err := shared.CurrentVersion(r.db)
	if err != nil {
		return err
	}
	r.logger.Warn("migration rolled back", "version", version)
	return r.writePlain("✓ Rolled back to schema version %d\n", version)
}
