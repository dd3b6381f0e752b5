package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if configPath != r.configPath {
		if _, err := os.Stat(configPath); err == nil {
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		} else {
			r.logger.Info("config file not found, using defaults", "path", configPath)
			config = shared.DefaultConfig()
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read migration state: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready: %s (%d migrations applied)\n", config.Database.Path, len(applied))
	return nil
}

// SetupConfig writes config.toml from the embedded template.
//
// Secrets are left blank; supply them in the file or through the environment.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in tracker.roster, accounts and store.sheets.spreadsheet_id\n")
	r.writePlain("2. Export %s and %s, or set them in the file\n", shared.EnvTelegramToken, shared.EnvTelegramChatID)
	r.writePlain("3. Run 'merchtrack sheet migrate' to prepare the worksheet\n")
	return nil
}
