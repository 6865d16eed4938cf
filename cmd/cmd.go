// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// curateCommand runs the pipeline once for a single window
func curateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "curate",
		Usage: "Build this week's playlist from the music channel and post the report",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "weeks-ago",
				Aliases: []string{"w"},
				Usage:   "Curate the week this many weeks before the current one (default from config)",
				Value:   -1,
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Start of a custom window (any date format; requires --to)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "End of a custom window; a bare date covers the whole day",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve and report without touching the playlist or posting",
			},
			&cli.BoolFlag{
				Name:  "no-report",
				Usage: "Update the playlist but do not post the report",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"o"},
				Usage:   "Write the curated tracks to this file",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown or text",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run result as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show every resolved link and debug logs",
			},
		},
		Action: r.Curate,
	}
}

// authCommand connects the Spotify account that owns the playlist
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize mixtape with Spotify using OAuth2",
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: authTimeout,
			},
			&cli.BoolFlag{
				Name:  "save-config",
				Usage: "Also write the tokens to the config file",
			},
		},
		Action: r.Auth,
	}
}

// serveCommand runs the weekly schedule with health and metrics endpoints
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run curation on a schedule and expose /healthz and /metrics",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Override the schedule (five-field cron or @descriptor)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the listen port",
			},
			&cli.BoolFlag{
				Name:  "run-now",
				Usage: "Run once immediately in addition to the schedule",
			},
		},
		Action: r.Serve,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the token database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.RollbackDatabase,
			},
		},
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration has everything a run needs",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigValidate,
			},
		},
	}
}
