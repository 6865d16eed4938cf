package curation

import "github.com/desertthunder/mixtape/internal/models"

// ExtractOptions controls candidate filtering.
type ExtractOptions struct {
	// DislikeThreshold vetoes a link once this many people react with a dislike. Zero disables the veto.
	DislikeThreshold int
}

// Extract scans messages oldest first and emits one candidate per link an adapter matches.
//
// A URL already claimed by an earlier adapter in the same message is skipped.
// Repeats within one adapter's matches are all emitted.
// Candidates are numbered in emission order so later stages can break ties by discovery.
func Extract(messages []models.Message, adapters []ServiceAdapter, opts ExtractOptions) []models.TrackCandidate {
	var (
		candidates []models.TrackCandidate
		discovered int
	)

	for _, msg := range messages {
		likes := msg.ReactionWeight(models.LikeEmoji)
		dislikes := msg.ReactionWeight(models.DislikeEmoji)
		claimed := make(map[string]struct{})

		for _, adapter := range adapters {
			matches := adapter.Match(msg.Content)
			for _, url := range matches {
				if _, ok := claimed[url]; ok {
					continue
				}

				if Vetoed(dislikes, opts.DislikeThreshold) {
					continue
				}

				candidates = append(candidates, models.TrackCandidate{
					URL:           url,
					Service:       adapter.Service,
					Author:        msg.Author,
					MessageID:     msg.ID,
					Discovered:    discovered,
					LikeWeight:    likes,
					DislikeWeight: dislikes,
				})
				discovered++
			}
			for _, url := range matches {
				claimed[url] = struct{}{}
			}
		}
	}
	return candidates
}

// Vetoed reports whether a dislike count reaches a positive threshold.
func Vetoed(dislikes, threshold int) bool {
	return threshold > 0 && dislikes >= threshold
}
