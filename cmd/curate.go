package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/observability"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/scrapers"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/desertthunder/mixtape/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	spotifyProvider = "spotify"
	pushTimeout     = 10 * time.Second
)

// Curate runs the pipeline once for the selected window and prints a summary.
func (r *Runner) Curate(ctx context.Context, cmd *cli.Command) error {
	loaded, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	config := *loaded

	verbose := cmd.Bool("verbose")
	if verbose {
		r.logger.SetLevel(log.DebugLevel)
	}
	if weeksAgo := int(cmd.Int("weeks-ago")); weeksAgo >= 0 {
		config.Curation.WeeksAgo = weeksAgo
	}
	if cmd.Bool("dry-run") {
		config.Curation.DryRun = true
	}

	if err := config.Validate(); err != nil {
		return err
	}

	window, err := r.window(cmd, &config)
	if err != nil {
		return err
	}
	r.logger.Info("starting curation", "from", window.From, "to", window.To, "dry_run", config.Curation.DryRun)

	useJSON := cmd.Bool("json")

	var (
		progress chan tasks.ProgressUpdate
		done     = make(chan struct{})
	)
	if useJSON {
		close(done)
	} else {
		progress = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range progress {
				r.printProgress(update, verbose)
			}
		}()
	}

	result, err := r.runOnce(ctx, &config, window, !cmd.Bool("no-report"), progress)
	if progress != nil {
		close(progress)
	}
	<-done

	if err != nil {
		if shared.IsEmptyResult(err) {
			r.writePlainln("%s", r.palette.Warn("Nothing to curate: "+err.Error()))
		}
		return err
	}

	if path := cmd.String("export"); path != "" {
		written, err := formatter.WriteExport(cmd.String("format"), path, result.Stats, result.Playlist)
		if err != nil {
			return err
		}
		if !useJSON {
			r.writePlain("%s\n", r.palette.OK("Tracks exported to "+written))
		}
	}

	if useJSON {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	r.printSummary(result)
	return nil
}

// runOnce executes one run and records it in metrics and the error reporter.
func (r *Runner) runOnce(ctx context.Context, config *shared.Config, window models.Window, postReport bool, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	start := time.Now()
	result, err := r.execute(ctx, config, window, postReport, progress)
	r.metrics.ObserveRun(result, err, time.Since(start))

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if pushErr := r.metrics.Push(pushCtx, config.Monitoring.PushgatewayURL, config.Monitoring.Job); pushErr != nil {
		r.logger.Warn("failed to push metrics", "error", pushErr)
	}

	tags := map[string]string{
		"outcome":     observability.Outcome(err),
		"window_from": window.From.Format(time.DateOnly),
	}
	if result != nil {
		tags["run_id"] = result.RunID
	}
	r.reporter.Capture(err, tags)

	return result, err
}

func (r *Runner) execute(ctx context.Context, config *shared.Config, window models.Window, postReport bool, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	engine, closeFn, err := r.engine(ctx, config)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if config.Curation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Curation.Timeout)
		defer cancel()
	}

	runCfg := tasks.NewRunConfig(config, window)
	runCfg.PostReport = postReport
	return engine.Run(ctx, runCfg, progress)
}

// engine assembles a [tasks.CurationEngine] from injected services or the config.
// The returned func releases the token database.
func (r *Runner) engine(ctx context.Context, config *shared.Config) (*tasks.CurationEngine, func(), error) {
	closeFn := func() {}

	chat := r.chat
	if chat == nil {
		discord, err := services.NewDiscordService(config.Discord.Token)
		if err != nil {
			return nil, closeFn, err
		}
		chat = discord
	}

	catalog := r.catalog
	if catalog == nil {
		spotify, db, err := r.connectSpotify(ctx, config)
		if err != nil {
			return nil, closeFn, err
		}
		catalog = spotify
		closeFn = func() { db.Close() }
	}

	titles := r.titles
	if titles == nil {
		titles = newTitleSources(config.Scrapers)
	}

	return tasks.NewCurationEngine(chat, catalog, curation.DefaultAdapters(*titles), r.logger), closeFn, nil
}

func newTitleSources(cfg shared.ScraperConfig) *curation.TitleSources {
	fetcher := scrapers.NewFetcher(cfg)
	return &curation.TitleSources{
		YouTube:    scrapers.NewYouTube(fetcher).Title,
		Apple:      scrapers.NewAppleMusic(fetcher).Title,
		SoundCloud: scrapers.NewSoundCloud(fetcher).Title,
	}
}

func newSpotifyService(config *shared.Config) (*services.SpotifyService, error) {
	return services.NewSpotifyService(map[string]string{
		"client_id":     config.Spotify.ClientID,
		"client_secret": config.Spotify.ClientSecret,
		"redirect_uri":  config.Spotify.RedirectURI,
	})
}

// connectSpotify authenticates with the stored token, falling back to the one in the config.
// Refreshed tokens are written back to the database.
func (r *Runner) connectSpotify(ctx context.Context, config *shared.Config) (*services.SpotifyService, *sql.DB, error) {
	svc, err := newSpotifyService(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	svc.SetLogger(r.logger)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, nil, err
	}
	repo := repositories.NewTokenRepository(db)

	token, err := repo.OAuthToken(spotifyProvider)
	switch {
	case errors.Is(err, repositories.ErrTokenNotFound):
		token = config.Spotify.Token()
	case err != nil:
		db.Close()
		return nil, nil, err
	}
	if token == nil {
		db.Close()
		return nil, nil, fmt.Errorf("%w: no Spotify token found, run `mixtape auth` first", shared.ErrNotAuthenticated)
	}

	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := repo.Save(spotifyProvider, t); err != nil {
			r.logger.Warn("failed to store refreshed token", "error", err)
		}
	})
	if err := svc.OAuthenticate(ctx, token); err != nil {
		db.Close()
		return nil, nil, err
	}
	return svc, db, nil
}

// window picks the custom --from/--to range when given, otherwise the configured week.
func (r *Runner) window(cmd *cli.Command, config *shared.Config) (models.Window, error) {
	loc, err := time.LoadLocation(config.Schedule.Timezone)
	if err != nil {
		return models.Window{}, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
	}

	from, to := cmd.String("from"), cmd.String("to")
	if from == "" && to == "" {
		return curation.WeekWindow(r.now().In(loc), config.Curation.WeeksAgo), nil
	}
	return parseWindow(from, to, loc)
}

// parseWindow reads both bounds in loc. A "to" at midnight is taken to mean the whole of that day.
func parseWindow(from, to string, loc *time.Location) (models.Window, error) {
	if from == "" || to == "" {
		return models.Window{}, fmt.Errorf("%w: --from and --to must be given together", shared.ErrInvalidFlag)
	}

	start, err := dateparse.ParseIn(from, loc)
	if err != nil {
		return models.Window{}, fmt.Errorf("%w: --from %q: %w", shared.ErrInvalidFlag, from, err)
	}
	end, err := dateparse.ParseIn(to, loc)
	if err != nil {
		return models.Window{}, fmt.Errorf("%w: --to %q: %w", shared.ErrInvalidFlag, to, err)
	}

	if end.Equal(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())) {
		end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if !end.After(start) {
		return models.Window{}, fmt.Errorf("%w: --to must be after --from", shared.ErrInvalidFlag)
	}
	return models.Window{From: start, To: end}, nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate, verbose bool) {
	switch update.Phase {
	case tasks.ResolveTracks:
		if verbose {
			r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	case tasks.MutatePlaylist, tasks.PostReport:
		r.writePlain("📝 %s\n", update.Message)
	default:
		r.writePlain("→ %s\n", update.Message)
	}
}

func (r *Runner) printSummary(result *tasks.RunResult) {
	r.writePlain("\n")
	r.writePlainHeader(result.Playlist.Name)

	rows := []ui.Row{
		{Label: "Window", Value: fmt.Sprintf("%s → %s", result.Window.From.Format(time.DateOnly), result.Window.To.Format(time.DateOnly))},
		{Label: "Messages", Value: result.Messages},
		{Label: "Links", Value: result.Candidates},
		{Label: "Tracks", Value: len(result.Stats.Tracks)},
		{Label: "Unresolved", Value: result.Unresolved},
		{Label: "Duplicates", Value: result.Duplicates},
	}
	if m := result.Mutation; m != nil {
		rows = append(rows, ui.Row{Label: "Playlist", Value: fmt.Sprintf("-%d +%d (was %d)", m.Removed, m.Added, m.Previous)})
	}
	r.writePlain("%s", r.palette.Summary(rows...))

	switch {
	case result.Mutation != nil && result.Mutation.DryRun:
		r.writePlainln("%s", r.palette.Warn("Dry run: the playlist was not changed and nothing was posted"))
		r.writePlain("%s\n", result.Report)
	case result.Posted > 0:
		r.writePlainln("%s", r.palette.OK(fmt.Sprintf("Report posted in %d message(s)", result.Posted)))
	default:
		r.writePlainln("%s", r.palette.OK("Playlist updated"))
	}
	r.writePlain("%s\n", r.palette.Help(result.Playlist.URL))
}
