package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("%s\n", r.palette.OK("Database ready at "+config.Database.Path))
	r.writePlain("Next: mixtape auth\n")
	return nil
}

// RollbackDatabase reverts the most recently applied migration.
func (r *Runner) RollbackDatabase(ctx context.Context, cmd *cli.Command) error {
	config, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.writePlain("%s\n", r.palette.OK("Rolled back the last migration"))
	return nil
}

// ConfigInit writes the example configuration to --config.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("%s\n", r.palette.OK("Config written to "+path))
	r.writePlain("%s\n", r.palette.Help("Fill in the Discord and Spotify settings, or supply them through the environment."))
	return nil
}

// ConfigValidate lists every problem with the configuration.
func (r *Runner) ConfigValidate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	config, err := readConfig(path)
	if err != nil {
		return err
	}

	verr := config.Validate()
	if verr == nil {
		r.writePlain("%s\n", r.palette.OK(path+" is valid"))
		return nil
	}

	var joined interface{ Unwrap() []error }
	if errors.As(verr, &joined) {
		for _, e := range joined.Unwrap() {
			r.writePlain("%s\n", r.palette.Fail(e.Error()))
		}
	} else {
		r.writePlain("%s\n", r.palette.Fail(verr.Error()))
	}
	return verr
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
