package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// RunConfig is everything one run needs besides its collaborators.
type RunConfig struct {
	SourceChannelID string
	ReportChannelID string
	PlaylistID      string
	PlaylistName    string // base name; the week's dates are appended
	DateFormat      string
	Window          models.Window
	PageSize        int

	Extract  curation.ExtractOptions
	Resolver curation.ResolverOptions
	Finalize curation.FinalizeOptions
	Mutator  curation.MutatorOptions
	Report   formatter.ReportOptions

	// MinMutationBudget is the least time that must remain before the
	// context deadline for the playlist to be touched.
	MinMutationBudget time.Duration
	PostReport        bool
}

// RunResult contains everything a run produced, including partial results on error.
type RunResult struct {
	RunID      string                   `json:"run_id"`
	Window     models.Window            `json:"window"`
	Messages   int                      `json:"messages"`
	Candidates int                      `json:"candidates"`
	Unresolved int                      `json:"unresolved"`
	Duplicates int                      `json:"duplicates"`
	Stats      *models.Stats            `json:"stats,omitempty"`
	Playlist   models.PlaylistMeta      `json:"playlist"`
	Mutation   *curation.MutationResult `json:"mutation,omitempty"`
	Report     string                   `json:"report,omitempty"`
	Posted     int                      `json:"posted"` // report messages sent
}

// CurationEngine wires the chat source and catalog into the curation pipeline.
type CurationEngine struct {
	chat     services.Chat
	catalog  services.Catalog
	adapters []curation.ServiceAdapter
	logger   *log.Logger
}

// NewCurationEngine creates an engine. Adapters are tried in the order given.
func NewCurationEngine(chat services.Chat, catalog services.Catalog, adapters []curation.ServiceAdapter, logger *log.Logger) *CurationEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &CurationEngine{chat: chat, catalog: catalog, adapters: adapters, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CurationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run curates one window: fetch, extract, resolve, aggregate, replace the playlist and post the report.
//
// Empty stages end the run early with [shared.ErrNoMessages], [shared.ErrNoCandidates]
// or [shared.ErrNoTracks] and leave the playlist untouched.
func (e *CurationEngine) Run(ctx context.Context, cfg RunConfig, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.chat == nil {
		return nil, fmt.Errorf("%w: chat service not initialized", shared.ErrServiceUnavailable)
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	result := &RunResult{RunID: shared.GenerateID(), Window: cfg.Window}
	logger := shared.WithLogger(e.logger, "run_id", result.RunID)

	e.sendProgress(progress, fetchMessagesUpdate(cfg.Window))
	messages, err := curation.FetchWindow(ctx, e.chat, cfg.SourceChannelID, cfg.Window.From, cfg.Window.To, cfg.PageSize)
	if err != nil {
		return result, stageError("fetch messages", err)
	}
	result.Messages = len(messages)
	logger.Info("messages fetched", "count", len(messages), "from", cfg.Window.From, "to", cfg.Window.To)
	if len(messages) == 0 {
		return result, fmt.Errorf("%w: channel %s", shared.ErrNoMessages, cfg.SourceChannelID)
	}

	candidates := curation.Extract(messages, e.adapters, cfg.Extract)
	result.Candidates = len(candidates)
	e.sendProgress(progress, extractLinksUpdate(len(messages), len(candidates)))
	logger.Info("links extracted", "count", len(candidates))
	if len(candidates) == 0 {
		return result, fmt.Errorf("%w: %d messages scanned", shared.ErrNoCandidates, len(messages))
	}

	resolver := curation.NewResolver(e.catalog, e.adapters, cfg.Resolver, logger)
	agg := curation.NewAggregator()
	for i, c := range candidates {
		e.sendProgress(progress, resolveTrackUpdate(i+1, len(candidates), c))

		resolved, err := resolver.Resolve(ctx, c)
		if err != nil {
			return result, stageError("resolve tracks", err)
		}
		if resolved == nil {
			result.Unresolved++
			continue
		}
		if !agg.Add(*resolved) {
			result.Duplicates++
			logger.Debug("duplicate track", "id", resolved.CatalogID, "url", c.URL)
		}
	}
	logger.Info("tracks resolved", "count", agg.Len(), "unresolved", result.Unresolved, "duplicates", result.Duplicates)
	if agg.Len() == 0 {
		return result, fmt.Errorf("%w: %d links could not be resolved", shared.ErrNoTracks, len(candidates))
	}

	e.sendProgress(progress, aggregateUpdate(agg.Len()))
	stats, err := agg.Finalize(ctx, e.catalog, cfg.Finalize)
	if err != nil {
		return result, stageError("aggregate", err)
	}
	result.Stats = stats

	meta := models.PlaylistMeta{
		ID:     cfg.PlaylistID,
		Name:   curation.PlaylistName(cfg.PlaylistName, cfg.DateFormat, cfg.Window),
		URL:    services.PlaylistURL(cfg.PlaylistID),
		Window: cfg.Window,
	}
	result.Playlist = meta

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < cfg.MinMutationBudget {
		return result, fmt.Errorf("%w: %s left", shared.ErrMutationSkipped, time.Until(deadline).Round(time.Millisecond))
	}

	mutator := curation.NewMutator(e.catalog, cfg.Mutator, logger)
	e.sendProgress(progress, mutatePlaylistUpdate(meta, len(stats.Tracks)))
	mutation, err := mutator.Replace(ctx, cfg.PlaylistID, stats.TrackIDs())
	result.Mutation = mutation
	if err != nil {
		return result, stageError("replace playlist", err)
	}

	e.sendProgress(progress, renamePlaylistUpdate(meta, mutation))
	if err := mutator.Rename(ctx, cfg.PlaylistID, meta.Name); err != nil {
		return result, stageError("rename playlist", err)
	}

	e.sendProgress(progress, composeReportUpdate())
	result.Report = formatter.ComposeReport(stats, meta, cfg.Report)

	if !cfg.PostReport || cfg.Mutator.DryRun || cfg.ReportChannelID == "" {
		logger.Info("report not posted", "dry_run", cfg.Mutator.DryRun, "channel", cfg.ReportChannelID)
		return result, nil
	}

	chunks := formatter.SplitMessage(result.Report, formatter.DiscordMessageLimit)
	for i, chunk := range chunks {
		e.sendProgress(progress, postReportUpdate(i+1, len(chunks), cfg.ReportChannelID))
		if err := e.chat.SendMessage(ctx, cfg.ReportChannelID, chunk); err != nil {
			return result, stageError("post report", err)
		}
		result.Posted++
	}
	logger.Info("report posted", "channel", cfg.ReportChannelID, "messages", result.Posted)

	return result, nil
}

// stageError wraps err with the failing stage and maps deadline expiry to [shared.ErrTimeout].
func stageError(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", shared.ErrTimeout, stage, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
