package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/observability"
	"github.com/desertthunder/mixtape/internal/scheduler"
	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the configured schedule until interrupted, exposing /healthz and /metrics.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	loaded, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	config := *loaded

	if err := config.Validate(); err != nil {
		return err
	}
	if port := int(cmd.Int("port")); port > 0 {
		config.Server.Port = port
	}
	spec := config.Schedule.Cron
	if c := cmd.String("cron"); c != "" {
		spec = c
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.NewScheduler(config.Schedule.Timezone, r.logger)
	if err != nil {
		return err
	}
	health := server.NewHealthHandler(sched.Next)

	job := r.scheduledJob(ctx, &config, sched.Location(), health)
	if err := sched.Schedule(spec, job); err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(health)
	router.Handle(http.MethodGet, "/metrics", r.metrics.Handler())

	srv, err := server.Listen(config.Server, router, r.logger)
	if err != nil {
		return err
	}

	sched.Start()
	defer func() { <-sched.Stop().Done() }()
	r.logger.Info("scheduler started", "schedule", spec, "timezone", sched.Location(), "next", sched.Next(), "addr", srv.Addr())

	if cmd.Bool("run-now") {
		go job()
	}

	return srv.Serve(ctx)
}

// scheduledJob curates the configured week relative to the time it fires.
func (r *Runner) scheduledJob(ctx context.Context, config *shared.Config, loc *time.Location, health *server.HealthHandler) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		health.RunStarted()

		window := curation.WeekWindow(r.now().In(loc), config.Curation.WeeksAgo)
		result, err := r.runOnce(ctx, config, window, true, nil)
		outcome := observability.Outcome(err)
		health.RunFinished(outcome, err)

		switch outcome {
		case observability.OutcomeSuccess:
			r.logger.Info("scheduled run complete", "run_id", result.RunID, "tracks", len(result.Stats.Tracks), "playlist", result.Playlist.Name)
		case observability.OutcomeEmpty, observability.OutcomeSkipped:
			r.logger.Warn("scheduled run ended early", "reason", err)
		default:
			r.logger.Error("scheduled run failed", "error", err)
		}
	}
}
