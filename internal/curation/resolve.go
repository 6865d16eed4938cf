package curation

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// TrackCatalog is the lookup half of the catalog client.
type TrackCatalog interface {
	Track(ctx context.Context, trackID string) (*models.Track, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// ResolverOptions tunes external link resolution.
type ResolverOptions struct {
	Threshold      float64
	SearchLimit    int
	MinQueryLength int
}

func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{Threshold: 0.8, SearchLimit: 10, MinQueryLength: 3}
}

// Resolver maps track candidates onto catalog tracks.
type Resolver struct {
	catalog  TrackCatalog
	adapters map[models.Service]ServiceAdapter
	matcher  *Matcher
	opts     ResolverOptions
	logger   *log.Logger
}

func NewResolver(catalog TrackCatalog, adapters []ServiceAdapter, opts ResolverOptions, logger *log.Logger) *Resolver {
	defaults := DefaultResolverOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = defaults.Threshold
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaults.SearchLimit
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = defaults.MinQueryLength
	}
	if logger == nil {
		logger = log.Default()
	}

	byService := make(map[models.Service]ServiceAdapter, len(adapters))
	for _, a := range adapters {
		byService[a.Service] = a
	}

	return &Resolver{
		catalog:  catalog,
		adapters: byService,
		matcher:  DefaultMatcher(),
		opts:     opts,
		logger:   logger,
	}
}

// SetMatcher replaces the scoring configuration.
func (r *Resolver) SetMatcher(m *Matcher) { r.matcher = m }

// Resolve returns the catalog track for c, or nil when the link cannot be resolved.
//
// Unresolvable links are logged and dropped. Only catalog transport failures and
// context cancellation are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, c models.TrackCandidate) (*models.ResolvedTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	adapter, ok := r.adapters[c.Service]
	if !ok {
		r.logger.Warn("no adapter for service", "service", c.Service, "url", c.URL)
		return nil, nil
	}

	var (
		track *models.Track
		err   error
	)
	if adapter.Native() {
		track, err = r.lookup(ctx, adapter, c)
	} else {
		track, err = r.search(ctx, adapter, c)
	}
	if err != nil || track == nil {
		return nil, err
	}

	resolved := models.NewResolvedTrack(c, *track)
	return &resolved, nil
}

func (r *Resolver) lookup(ctx context.Context, adapter ServiceAdapter, c models.TrackCandidate) (*models.Track, error) {
	id := adapter.TrackID(c.URL)
	if id == "" {
		r.logger.Debug("link has no track id", "url", c.URL)
		return nil, nil
	}

	track, err := r.catalog.Track(ctx, id)
	if errors.Is(err, shared.ErrTrackNotFound) {
		r.logger.Warn("track not in catalog", "id", id, "url", c.URL)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up track %s: %w", id, err)
	}
	return track, nil
}

func (r *Resolver) search(ctx context.Context, adapter ServiceAdapter, c models.TrackCandidate) (*models.Track, error) {
	if adapter.ResolveTitle == nil {
		r.logger.Debug("no title source", "service", c.Service, "url", c.URL)
		return nil, nil
	}

	title, err := adapter.ResolveTitle(ctx, c.URL)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil || title == "" {
		r.logger.Warn("could not read title", "service", c.Service, "url", c.URL, "error", err)
		return nil, nil
	}

	query := NormalizeQuery(title)
	if utf8.RuneCountInString(query) < r.opts.MinQueryLength {
		r.logger.Debug("query too short", "title", title, "query", query)
		return nil, nil
	}

	results, err := r.catalog.SearchTracks(ctx, query, r.opts.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	best, score, ok := r.matcher.Best(title, results, r.opts.Threshold)
	if !ok {
		r.logger.Info("no confident match", "title", title, "results", len(results))
		return nil, nil
	}

	r.logger.Debug("matched", "title", title, "track", best.Title, "artists", best.ArtistNames(", "), "score", score)
	return &best, nil
}
