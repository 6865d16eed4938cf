package tasks

import (
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// NewRunConfig maps the application config onto a run over window.
func NewRunConfig(cfg *shared.Config, window models.Window) RunConfig {
	c := cfg.Curation
	return RunConfig{
		SourceChannelID: cfg.Discord.SourceChannelID,
		ReportChannelID: cfg.Discord.ReportChannelID,
		PlaylistID:      cfg.Playlist.ID,
		PlaylistName:    cfg.Playlist.Name,
		DateFormat:      cfg.Playlist.DateFormat,
		Window:          window,
		PageSize:        cfg.Discord.PageSize,
		Extract:         curation.ExtractOptions{DislikeThreshold: c.DislikeThreshold},
		Resolver: curation.ResolverOptions{
			Threshold:      c.MatchThreshold,
			SearchLimit:    c.SearchLimit,
			MinQueryLength: c.MinQueryLength,
		},
		Finalize: curation.FinalizeOptions{
			ArtistChunk:      c.ArtistChunk,
			Concurrency:      curation.DefaultFinalizeOptions().Concurrency,
			SortByPopularity: c.SortByPopularity,
		},
		Mutator: curation.MutatorOptions{
			RemoveBatch: c.RemoveBatch,
			AddBatch:    c.AddBatch,
			DryRun:      c.DryRun,
		},
		Report: formatter.ReportOptions{
			TopN:           c.TopN,
			MinArtistCount: c.ArtistThreshold,
			MinLikes:       c.LikeThreshold,
		},
		MinMutationBudget: c.MinMutationBudget,
		PostReport:        true,
	}
}
