package main

import (
	"context"
	"os"
	"time"

	"github.com/desertthunder/mixtape/internal/observability"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv("MIXTAPE_CONFIG"); p != "" {
		configPath = p
	}

	config, err := readConfig(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
	}
	shared.SetLogLevel(logger, config.Log.Level)

	reporter, err := observability.NewReporter(config.Monitoring, version)
	if err != nil {
		logger.Warn("error reporting disabled", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Reporter:   reporter,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "mixtape",
		Usage:    "Curate a weekly Spotify playlist from the links shared in a Discord channel",
		Version:  version,
		Commands: runner.register(),
	}

	err = app.Run(context.Background(), os.Args)
	reporter.Flush(2 * time.Second)
	if err != nil {
		if shared.IsEmptyResult(err) {
			logger.Warn("nothing to curate", "reason", err)
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
