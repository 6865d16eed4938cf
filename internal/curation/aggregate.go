package curation

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/desertthunder/mixtape/internal/models"
	"golang.org/x/sync/errgroup"
)

// ArtistSource fetches full artist records in batches.
type ArtistSource interface {
	Artists(ctx context.Context, artistIDs []string) ([]models.Artist, error)
}

// FinalizeOptions controls the genre pass and final ordering.
type FinalizeOptions struct {
	ArtistChunk      int
	Concurrency      int
	SortByPopularity bool
}

func DefaultFinalizeOptions() FinalizeOptions {
	return FinalizeOptions{ArtistChunk: 50, Concurrency: 4}
}

// tally counts occurrences by key and remembers first-seen order and display names.
type tally struct {
	order  []string
	names  map[string]string
	counts map[string]int
}

func newTally() *tally {
	return &tally{names: make(map[string]string), counts: make(map[string]int)}
}

func (t *tally) add(key, name string, n int) {
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
		t.names[key] = name
	}
	t.counts[key] += n
}

func (t *tally) stats() []models.Stat {
	stats := make([]models.Stat, 0, len(t.order))
	for _, key := range t.order {
		stats = append(stats, models.Stat{Key: key, DisplayName: t.names[key], Weight: t.counts[key]})
	}
	models.SortStats(stats)
	return stats
}

// Aggregator accumulates one run's resolved tracks. The first track seen for a
// catalog ID wins; later duplicates contribute nothing to any tally.
type Aggregator struct {
	tracks       []models.ResolvedTrack
	seen         map[string]struct{}
	contributors *tally
	artists      *tally
	services     map[models.Service]int
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		seen:         make(map[string]struct{}),
		contributors: newTally(),
		artists:      newTally(),
		services:     make(map[models.Service]int),
	}
}

// Add records t and reports whether it was new.
func (a *Aggregator) Add(t models.ResolvedTrack) bool {
	if _, dup := a.seen[t.CatalogID]; dup {
		return false
	}
	a.seen[t.CatalogID] = struct{}{}
	a.tracks = append(a.tracks, t)

	a.services[t.Service]++
	a.contributors.add(t.Author.ID, t.Author.Name, 1)
	for _, artist := range t.Artists {
		a.artists.add(artist.ID, artist.Name, 1)
	}
	return true
}

// Len is the number of distinct tracks accepted.
func (a *Aggregator) Len() int { return len(a.tracks) }

// Finalize looks up genres for every artist seen and returns the ordered result.
//
// Artist chunks are fetched concurrently. Each genre gains the occurrence count of
// every artist tagged with it, so the merge does not depend on fetch order.
func (a *Aggregator) Finalize(ctx context.Context, src ArtistSource, opts FinalizeOptions) (*models.Stats, error) {
	genres, err := a.genres(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	services := make(map[models.Service]int, len(a.services))
	for s, n := range a.services {
		services[s] = n
	}

	return &models.Stats{
		Tracks:        a.ordered(opts.SortByPopularity),
		Contributors:  a.contributors.stats(),
		Artists:       a.artists.stats(),
		Genres:        genres,
		ServiceCounts: services,
	}, nil
}

func (a *Aggregator) genres(ctx context.Context, src ArtistSource, opts FinalizeOptions) ([]models.Stat, error) {
	ids := slices.Clone(a.artists.order)
	if len(ids) == 0 || src == nil {
		return []models.Stat{}, nil
	}

	size := opts.ArtistChunk
	if size <= 0 {
		size = DefaultFinalizeOptions().ArtistChunk
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultFinalizeOptions().Concurrency
	}

	var (
		mu      sync.Mutex
		records []models.Artist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for chunk := range slices.Chunk(ids, size) {
		g.Go(func() error {
			artists, err := src.Artists(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			records = append(records, artists...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sorted by ID so genre tie order does not depend on fetch order.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	genres := newTally()
	for _, artist := range records {
		weight := a.artists.counts[artist.ID]
		if weight == 0 {
			continue
		}
		for _, genre := range artist.Genres {
			genres.add(genre, genre, weight)
		}
	}
	return genres.stats(), nil
}

// ordered returns tracks by like weight, most liked first, with ties going to the newest discovery.
// With byPopularity, catalog popularity ranks first and like weight breaks ties.
func (a *Aggregator) ordered(byPopularity bool) []models.ResolvedTrack {
	tracks := slices.Clone(a.tracks)
	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].Discovered < tracks[j].Discovered })

	if byPopularity {
		sort.SliceStable(tracks, func(i, j int) bool {
			if tracks[i].Popularity != tracks[j].Popularity {
				return tracks[i].Popularity > tracks[j].Popularity
			}
			return tracks[i].LikeWeight > tracks[j].LikeWeight
		})
		return tracks
	}

	// Ascending by likes with discovery order kept, then reversed.
	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].LikeWeight < tracks[j].LikeWeight })
	slices.Reverse(tracks)
	return tracks
}
