package tasks

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

const (
	sourceChannel = "source"
	reportChannel = "report"
	playlistID    = "pl1"
)

var week = models.Window{
	From: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 3, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC),
}

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

func testRunConfig() RunConfig {
	cfg := NewRunConfig(shared.DefaultConfig(), week)
	cfg.SourceChannelID = sourceChannel
	cfg.ReportChannelID = reportChannel
	cfg.PlaylistID = playlistID
	return cfg
}

type fixture struct {
	chat    *tu.FakeChat
	catalog *tu.FakeCatalog
	titles  *tu.FakeTitles
	engine  *CurationEngine
}

func newFixture() *fixture {
	chat := tu.NewFakeChat()
	catalog := tu.NewFakeCatalog()
	titles := tu.NewFakeTitles(map[string]string{
		"https://youtu.be/xyz": "Song Title (Live)",
	})

	catalog.AddTrack(models.Track{ID: "AAA", Title: "Alpha", Artists: []models.ArtistRef{{ID: "x", Name: "Artist X"}}})
	catalog.SearchResults["Song Title"] = []models.Track{
		{ID: "BBB", Title: "Song Title", Artists: []models.ArtistRef{{ID: "y", Name: "Artist Y"}}},
	}
	catalog.AddArtist(models.Artist{ID: "x", Name: "Artist X", Genres: []string{"indie rock"}})
	catalog.AddArtist(models.Artist{ID: "y", Name: "Artist Y", Genres: []string{"indie rock", "folk"}})
	catalog.Playlists[playlistID] = []string{"OLD1", "OLD2", "OLD3"}

	adapters := curation.DefaultAdapters(curation.TitleSources{YouTube: titles.Title, Apple: titles.Title, SoundCloud: titles.Title})
	return &fixture{
		chat:    chat,
		catalog: catalog,
		titles:  titles,
		engine:  NewCurationEngine(chat, catalog, adapters, quietLogger()),
	}
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func TestCurationEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("curates the week", func(t *testing.T) {
		f := newFixture()
		first := tu.React(tu.Message("m1", "A", "check this https://open.spotify.com/track/AAA", day(5)), models.LikeEmoji, "B", "C", "A")
		bot := tu.Message("m0", "bot", "https://open.spotify.com/track/BOT", day(5))
		bot.Author.Bot = true
		f.chat.Post(sourceChannel,
			tu.Message("old", "A", "https://open.spotify.com/track/OLD", day(1)),
			first,
			bot,
			tu.Message("m2", "B", "live version https://youtu.be/xyz", day(6)),
			tu.Message("m3", "C", "again! https://open.spotify.com/track/AAA", day(7)),
			tu.Message("m4", "C", "no links here", day(8)),
		)

		result, err := f.engine.Run(ctx, testRunConfig(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if result.RunID == "" {
			t.Error("expected a run ID")
		}
		if result.Messages != 4 || result.Candidates != 3 || result.Duplicates != 1 || result.Unresolved != 0 {
			t.Errorf("unexpected counts: %+v", result)
		}

		stats := result.Stats
		if ids := stats.TrackIDs(); !slices.Equal(ids, []string{"AAA", "BBB"}) {
			t.Errorf("expected [AAA BBB], got %v", ids)
		}
		if stats.Tracks[0].LikeWeight != 2 {
			t.Errorf("expected AAA to carry 2 likes, got %d", stats.Tracks[0].LikeWeight)
		}

		contributors := make(map[string]int)
		for _, s := range stats.Contributors {
			contributors[s.Key] = s.Weight
		}
		if len(contributors) != 2 || contributors["A"] != 1 || contributors["B"] != 1 {
			t.Errorf("unexpected contributors: %v", stats.Contributors)
		}
		if stats.ServiceCounts[models.ServiceSpotify] != 1 || stats.ServiceCounts[models.ServiceYouTube] != 1 {
			t.Errorf("unexpected service counts: %v", stats.ServiceCounts)
		}
		if len(stats.Genres) == 0 || stats.Genres[0].Key != "indie rock" || stats.Genres[0].Weight != 2 {
			t.Errorf("unexpected genres: %v", stats.Genres)
		}

		if got := f.catalog.Playlist(playlistID); !slices.Equal(got, []string{"AAA", "BBB"}) {
			t.Errorf("playlist = %v, want [AAA BBB]", got)
		}
		if result.Mutation == nil || result.Mutation.Previous != 3 || result.Mutation.Removed != 3 || result.Mutation.Added != 2 {
			t.Errorf("unexpected mutation: %+v", result.Mutation)
		}
		if name := f.catalog.Names[playlistID]; name != "Weekly Mixtape (4th March - 10th March)" {
			t.Errorf("unexpected playlist name %q", name)
		}
		if f.catalog.Searches[0] != "Song Title" {
			t.Errorf("expected normalized search, got %v", f.catalog.Searches)
		}

		sent := f.chat.Sent[reportChannel]
		if len(sent) != 1 || result.Posted != 1 {
			t.Fatalf("expected one report message, got %d", len(sent))
		}
		for _, want := range []string{"Weekly Mixtape (4th March - 10th March)", "<@A>", "<@B>", "2 tracks from 2 curators", "https://open.spotify.com/playlist/pl1"} {
			if !strings.Contains(sent[0], want) {
				t.Errorf("report missing %q\n%s", want, sent[0])
			}
		}
	})

	t.Run("disliked links are never resolved", func(t *testing.T) {
		f := newFixture()
		vetoed := tu.React(tu.Message("m1", "A", "https://youtu.be/xyz", day(5)), models.DislikeEmoji, "B", "C")
		f.chat.Post(sourceChannel, vetoed, tu.Message("m2", "B", "https://open.spotify.com/track/AAA", day(6)))

		result, err := f.engine.Run(ctx, testRunConfig(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if f.titles.Calls != 0 || len(f.catalog.Searches) != 0 {
			t.Errorf("vetoed link reached the resolver: %d title calls, searches %v", f.titles.Calls, f.catalog.Searches)
		}
		if ids := result.Stats.TrackIDs(); !slices.Equal(ids, []string{"AAA"}) {
			t.Errorf("expected [AAA], got %v", ids)
		}
		if result.Stats.Tracks[0].Discovered != 0 {
			t.Error("vetoed link should not consume a discovery number")
		}
	})

	t.Run("unresolvable links are dropped", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel,
			tu.Message("m1", "A", "https://soundcloud.com/someone/unknown", day(5)),
			tu.Message("m2", "B", "https://open.spotify.com/track/AAA", day(6)),
		)

		result, err := f.engine.Run(ctx, testRunConfig(), nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Unresolved != 1 || len(result.Stats.Tracks) != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("dry run leaves playlist and channel untouched", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))

		cfg := testRunConfig()
		cfg.Mutator.DryRun = true
		result, err := f.engine.Run(ctx, cfg, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !result.Mutation.DryRun || len(f.catalog.Removals) != 0 || len(f.catalog.Additions) != 0 || len(f.catalog.Renames) != 0 {
			t.Errorf("dry run mutated the playlist: %+v", f.catalog)
		}
		if len(f.chat.Sent) != 0 {
			t.Error("dry run posted a report")
		}
		if result.Report == "" {
			t.Error("dry run should still compose the report")
		}
	})

	t.Run("report posting can be disabled", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))

		cfg := testRunConfig()
		cfg.PostReport = false
		if _, err := f.engine.Run(ctx, cfg, nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(f.chat.Sent) != 0 {
			t.Error("expected no report")
		}
		if len(f.catalog.Additions) == 0 {
			t.Error("playlist should still be replaced")
		}
	})
}

func TestCurationEngineEmptyResults(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name     string
		messages []models.Message
		want     error
	}{
		{"no messages", nil, shared.ErrNoMessages},
		{"no links", []models.Message{tu.Message("m1", "A", "hello", day(5))}, shared.ErrNoCandidates},
		{"nothing resolves", []models.Message{tu.Message("m1", "A", "https://open.spotify.com/track/NOPE", day(5))}, shared.ErrNoTracks},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.chat.Post(sourceChannel, tt.messages...)

			result, err := f.engine.Run(ctx, testRunConfig(), nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !shared.IsEmptyResult(err) {
				t.Error("expected an empty-result error")
			}
			if result == nil {
				t.Fatal("expected a partial result")
			}
			if len(f.catalog.Removals) != 0 || len(f.catalog.Additions) != 0 {
				t.Error("playlist should be untouched")
			}
			if got := f.catalog.Playlist(playlistID); len(got) != 3 {
				t.Errorf("playlist changed: %v", got)
			}
		})
	}
}

func TestCurationEngineErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing services", func(t *testing.T) {
		engine := NewCurationEngine(nil, tu.NewFakeCatalog(), nil, quietLogger())
		if _, err := engine.Run(ctx, testRunConfig(), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}

		engine = NewCurationEngine(tu.NewFakeChat(), nil, nil, quietLogger())
		if _, err := engine.Run(ctx, testRunConfig(), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("chat transport failure", func(t *testing.T) {
		f := newFixture()
		f.chat.Err = errors.New("connection reset")

		_, err := f.engine.Run(ctx, testRunConfig(), nil)
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("catalog failure aborts before mutation", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))
		f.catalog.Err = shared.ErrTransport

		_, err := f.engine.Run(ctx, testRunConfig(), nil)
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		if len(f.catalog.Additions) != 0 {
			t.Error("playlist should be untouched")
		}
	})

	t.Run("expired deadline is a timeout", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))

		cctx, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()

		_, err := f.engine.Run(cctx, testRunConfig(), nil)
		if !errors.Is(err, shared.ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected ErrTimeout wrapping DeadlineExceeded, got %v", err)
		}
	})

	t.Run("too little time left skips mutation", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))

		cctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		cfg := testRunConfig()
		cfg.MinMutationBudget = time.Hour
		result, err := f.engine.Run(cctx, cfg, nil)
		if !errors.Is(err, shared.ErrMutationSkipped) {
			t.Fatalf("expected ErrMutationSkipped, got %v", err)
		}
		if result.Stats == nil || len(f.catalog.Removals) != 0 {
			t.Error("expected stats without mutation")
		}
	})

	t.Run("report failure is returned after mutation", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))
		f.chat.SendErr = errors.New("missing access")

		result, err := f.engine.Run(ctx, testRunConfig(), nil)
		if err == nil || !strings.Contains(err.Error(), "post report") {
			t.Fatalf("expected post report error, got %v", err)
		}
		if result.Mutation == nil || result.Mutation.Added != 1 {
			t.Error("mutation should have completed")
		}
	})
}

func TestCurationEngineProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("reports each phase", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel,
			tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)),
			tu.Message("m2", "B", "https://youtu.be/xyz", day(6)),
		)

		progress := make(chan ProgressUpdate, 64)
		if _, err := f.engine.Run(ctx, testRunConfig(), progress); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		close(progress)

		seen := make(map[Phase]int)
		for update := range progress {
			seen[update.Phase]++
			if update.Message == "" {
				t.Errorf("empty message for phase %s", update.Phase)
			}
		}
		for _, phase := range []Phase{FetchMessages, ExtractLinks, ResolveTracks, Aggregate, MutatePlaylist, ComposeReport, PostReport} {
			if seen[phase] == 0 {
				t.Errorf("no update for phase %s", phase)
			}
		}
		if seen[ResolveTracks] != 2 {
			t.Errorf("expected one resolve update per candidate, got %d", seen[ResolveTracks])
		}
	})

	t.Run("full channel never blocks", func(t *testing.T) {
		f := newFixture()
		f.chat.Post(sourceChannel, tu.Message("m1", "A", "https://open.spotify.com/track/AAA", day(5)))

		progress := make(chan ProgressUpdate)
		done := make(chan error, 1)
		go func() {
			_, err := f.engine.Run(ctx, testRunConfig(), progress)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run failed: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run blocked on an unread progress channel")
		}
	})
}

func TestPhaseString(t *testing.T) {
	tc := []struct {
		phase Phase
		want  string
	}{
		{FetchMessages, "fetch_messages"},
		{ExtractLinks, "extract_links"},
		{ResolveTracks, "resolve_tracks"},
		{Aggregate, "aggregate"},
		{MutatePlaylist, "mutate_playlist"},
		{ComposeReport, "compose_report"},
		{PostReport, "post_report"},
		{Phase(99), ""},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRunConfig(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Discord.SourceChannelID = "src"
	cfg.Playlist.ID = "pl"
	cfg.Curation.DislikeThreshold = 4
	cfg.Curation.SortByPopularity = true

	rc := NewRunConfig(cfg, week)
	if rc.SourceChannelID != "src" || rc.PlaylistID != "pl" || rc.PlaylistName != "Weekly Mixtape" {
		t.Errorf("unexpected ids: %+v", rc)
	}
	if rc.Extract.DislikeThreshold != 4 || !rc.Finalize.SortByPopularity {
		t.Errorf("curation options not mapped: %+v", rc)
	}
	if rc.Resolver.Threshold != 0.8 || rc.Mutator.AddBatch != 99 || rc.Report.MinArtistCount != 2 {
		t.Errorf("defaults not mapped: %+v", rc)
	}
	if rc.MinMutationBudget != 15*time.Second || !rc.PostReport {
		t.Errorf("unexpected run settings: %+v", rc)
	}
}
