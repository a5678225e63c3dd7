package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/hotlist/internal/shared"
	"github.com/desertthunder/hotlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s\n", ui.Styles.OK("Wrote %s", configPath))
	return r.writePlain("%s\n", ui.Styles.Help("Fill in credentials.spotify, playlist.name and artists.allow before running"))
}

// SetupDatabase creates the database at the configured path and applies migrations.
//
// A missing config file is created from the example first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenStore(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("%s\n", ui.Styles.OK("Database ready at %s", r.config.Database.Path))
}
