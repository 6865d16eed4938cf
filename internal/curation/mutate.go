package curation

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/shared"
)

// PlaylistWriter is the mutation half of the catalog client.
type PlaylistWriter interface {
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)
	RemovePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error
	AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error
	RenamePlaylist(ctx context.Context, playlistID, name string) error
}

// MutatorOptions sets batch sizes. Catalogs cap both at 100 per call.
type MutatorOptions struct {
	RemoveBatch int
	AddBatch    int
	DryRun      bool
}

func DefaultMutatorOptions() MutatorOptions {
	return MutatorOptions{RemoveBatch: 50, AddBatch: 99}
}

// MutationResult summarizes a replacement.
type MutationResult struct {
	Previous int  `json:"previous"`
	Removed  int  `json:"removed"`
	Added    int  `json:"added"`
	DryRun   bool `json:"dry_run"`
}

// Mutator replaces playlist contents.
type Mutator struct {
	playlist PlaylistWriter
	opts     MutatorOptions
	logger   *log.Logger
}

func NewMutator(playlist PlaylistWriter, opts MutatorOptions, logger *log.Logger) *Mutator {
	defaults := DefaultMutatorOptions()
	if opts.RemoveBatch <= 0 {
		opts.RemoveBatch = defaults.RemoveBatch
	}
	if opts.AddBatch <= 0 {
		opts.AddBatch = defaults.AddBatch
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Mutator{playlist: playlist, opts: opts, logger: logger}
}

// Replace empties the playlist and adds trackIDs in order.
//
// Running it twice with the same input leaves the same playlist. An empty track
// list is refused so a failed run never leaves the playlist blank. A dry run
// only reads the playlist, and a failed read is logged rather than returned.
func (m *Mutator) Replace(ctx context.Context, playlistID string, trackIDs []string) (*MutationResult, error) {
	if len(trackIDs) == 0 {
		return nil, shared.ErrNothingToWrite
	}

	current, err := m.playlist.PlaylistTrackIDs(ctx, playlistID)
	if err != nil && !m.opts.DryRun {
		return nil, fmt.Errorf("read playlist %s: %w", playlistID, err)
	}
	result := &MutationResult{Previous: len(current), DryRun: m.opts.DryRun}

	if m.opts.DryRun {
		if err != nil {
			m.logger.Warn("dry run: could not read playlist", "playlist", playlistID, "error", err)
		}
		m.logger.Info("dry run: playlist left unchanged", "playlist", playlistID, "current", len(current), "new", len(trackIDs))
		return result, nil
	}

	removed, err := m.clear(ctx, playlistID, current)
	result.Removed = removed
	if err != nil {
		return result, err
	}

	for batch := range slices.Chunk(trackIDs, m.opts.AddBatch) {
		if err := m.playlist.AddPlaylistTracks(ctx, playlistID, batch); err != nil {
			return result, fmt.Errorf("add tracks to %s after %d: %w", playlistID, result.Added, err)
		}
		result.Added += len(batch)
	}

	m.logger.Info("playlist replaced", "playlist", playlistID, "removed", result.Removed, "added", result.Added)
	return result, nil
}

// clear removes batches until the playlist reads back empty. Each round must
// shrink the playlist and the number of rounds is bounded by its starting size.
func (m *Mutator) clear(ctx context.Context, playlistID string, current []string) (int, error) {
	removed := 0
	maxRounds := len(current)/m.opts.RemoveBatch + 2

	for round := 0; len(current) > 0; round++ {
		if round >= maxRounds {
			return removed, fmt.Errorf("%w: playlist %s still has %d tracks after %d rounds", shared.ErrAPIRequest, playlistID, len(current), round)
		}

		batch := distinct(current, m.opts.RemoveBatch)
		if err := m.playlist.RemovePlaylistTracks(ctx, playlistID, batch); err != nil {
			return removed, fmt.Errorf("remove tracks from %s: %w", playlistID, err)
		}

		next, err := m.playlist.PlaylistTrackIDs(ctx, playlistID)
		if err != nil {
			return removed, fmt.Errorf("read playlist %s: %w", playlistID, err)
		}
		if len(next) >= len(current) {
			return removed, fmt.Errorf("%w: playlist %s did not shrink below %d tracks", shared.ErrAPIRequest, playlistID, len(current))
		}
		removed += len(current) - len(next)
		current = next
	}
	return removed, nil
}

// Rename sets the playlist's display name. It does nothing in a dry run.
func (m *Mutator) Rename(ctx context.Context, playlistID, name string) error {
	if m.opts.DryRun {
		m.logger.Info("dry run: playlist not renamed", "playlist", playlistID, "name", name)
		return nil
	}
	if err := m.playlist.RenamePlaylist(ctx, playlistID, name); err != nil {
		return fmt.Errorf("rename playlist %s: %w", playlistID, err)
	}
	return nil
}

// distinct returns up to n unique IDs from ids in order.
func distinct(ids []string, n int) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, id := range ids {
		if len(out) == n {
			break
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
