package tasks

import (
	"fmt"

	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/models"
)

// ProgressUpdate represents a progress event during a curation run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchMessages Phase = iota
	ExtractLinks
	ResolveTracks
	Aggregate
	MutatePlaylist
	ComposeReport
	PostReport
)

func (p Phase) String() string {
	switch p {
	case FetchMessages:
		return "fetch_messages"
	case ExtractLinks:
		return "extract_links"
	case ResolveTracks:
		return "resolve_tracks"
	case Aggregate:
		return "aggregate"
	case MutatePlaylist:
		return "mutate_playlist"
	case ComposeReport:
		return "compose_report"
	case PostReport:
		return "post_report"
	default:
		return ""
	}
}

func fetchMessagesUpdate(w models.Window) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMessages,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching messages from %s to %s...", w.From.Format("2006-01-02"), w.To.Format("2006-01-02")),
		Data:    w,
	}
}

func extractLinksUpdate(messages, candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractLinks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d track links in %d messages", candidates, messages),
	}
}

func resolveTrackUpdate(step, total int, c models.TrackCandidate) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, c.Service, c.URL),
		Data:    c,
	}
}

func aggregateUpdate(tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Ranking %d tracks and fetching genres...", tracks),
	}
}

func mutatePlaylistUpdate(meta models.PlaylistMeta, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MutatePlaylist,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Replacing playlist %s with %d tracks...", meta.ID, tracks),
		Data:    meta,
	}
}

func renamePlaylistUpdate(meta models.PlaylistMeta, result *curation.MutationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MutatePlaylist,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Renaming playlist to %q", meta.Name),
		Data:    result,
	}
}

func composeReportUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComposeReport,
		Step:    1,
		Total:   1,
		Message: "Composing report...",
	}
}

func postReportUpdate(step, total int, channelID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PostReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Posting report to channel %s", step, total, channelID),
	}
}
