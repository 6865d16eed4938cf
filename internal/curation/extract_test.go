package curation

import (
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

func TestAdapters(t *testing.T) {
	adapters := DefaultAdapters(TitleSources{})
	byService := make(map[models.Service]ServiceAdapter)
	for _, a := range adapters {
		byService[a.Service] = a
	}

	tc := []struct {
		name    string
		service models.Service
		content string
		want    []string
	}{
		{
			name:    "spotify track with query",
			service: models.ServiceSpotify,
			content: "listen https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123 now",
			want:    []string{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123"},
		},
		{
			name:    "spotify intl link",
			service: models.ServiceSpotify,
			content: "https://open.spotify.com/intl-de/track/AAA",
			want:    []string{"https://open.spotify.com/intl-de/track/AAA"},
		},
		{
			name:    "spotify album is ignored",
			service: models.ServiceSpotify,
			content: "https://open.spotify.com/album/XYZ",
		},
		{
			name:    "youtube variants",
			service: models.ServiceYouTube,
			content: "https://www.youtube.com/watch?v=abc, https://youtu.be/def! and https://music.youtube.com/watch?v=ghi",
			want:    []string{"https://www.youtube.com/watch?v=abc", "https://youtu.be/def", "https://music.youtube.com/watch?v=ghi"},
		},
		{
			name:    "youtube channel is ignored",
			service: models.ServiceYouTube,
			content: "https://www.youtube.com/@someone",
		},
		{
			name:    "apple music album",
			service: models.ServiceApple,
			content: "(https://music.apple.com/gb/album/song/123?i=456)",
			want:    []string{"https://music.apple.com/gb/album/song/123?i=456"},
		},
		{
			name:    "soundcloud in angle brackets",
			service: models.ServiceSoundCloud,
			content: "<https://soundcloud.com/artist/track>",
			want:    []string{"https://soundcloud.com/artist/track"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := byService[tt.service].Match(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("Match() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Match()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	t.Run("registry order", func(t *testing.T) {
		want := []models.Service{models.ServiceSpotify, models.ServiceYouTube, models.ServiceApple, models.ServiceSoundCloud}
		for i, a := range adapters {
			if a.Service != want[i] {
				t.Errorf("adapter %d: expected %s, got %s", i, want[i], a.Service)
			}
		}
		if !adapters[0].Native() || adapters[1].Native() {
			t.Error("only the spotify adapter should be native")
		}
	})
}

func TestSpotifyTrackID(t *testing.T) {
	tc := []struct {
		url  string
		want string
	}{
		{"https://open.spotify.com/track/AAA", "AAA"},
		{"https://open.spotify.com/track/AAA?si=xyz", "AAA"},
		{"https://open.spotify.com/intl-pt/track/BBB?si=1", "BBB"},
		{"https://open.spotify.com/album/CCC", ""},
	}

	for _, tt := range tc {
		if got := SpotifyTrackID(tt.url); got != tt.want {
			t.Errorf("SpotifyTrackID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	adapters := DefaultAdapters(TitleSources{})

	t.Run("one candidate per link in message order", func(t *testing.T) {
		msgs := []models.Message{
			tu.Message("1", "alice", "https://open.spotify.com/track/AAA and https://youtu.be/xyz", at),
			tu.Message("2", "bob", "no links here", at.Add(time.Minute)),
			tu.Message("3", "carol", "https://soundcloud.com/a/b", at.Add(2*time.Minute)),
		}

		got := Extract(msgs, adapters, ExtractOptions{})
		if len(got) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(got))
		}

		want := []struct {
			service models.Service
			author  string
		}{
			{models.ServiceSpotify, "alice"},
			{models.ServiceYouTube, "alice"},
			{models.ServiceSoundCloud, "carol"},
		}
		for i, w := range want {
			if got[i].Service != w.service || got[i].Author.ID != w.author || got[i].Discovered != i {
				t.Errorf("candidate %d = %+v, want %s by %s", i, got[i], w.service, w.author)
			}
		}
	})

	t.Run("url claimed by an earlier adapter is not repeated", func(t *testing.T) {
		overlapping := append([]ServiceAdapter{}, adapters...)
		overlapping = append(overlapping, ServiceAdapter{
			Service: "generic",
			Match:   func(string) []string { return []string{"https://youtu.be/xyz", "https://other.example/1"} },
		})

		got := Extract([]models.Message{tu.Message("1", "a", "https://youtu.be/xyz", at)}, overlapping, ExtractOptions{})
		if len(got) != 2 || got[0].Service != models.ServiceYouTube || got[1].URL != "https://other.example/1" {
			t.Errorf("unexpected candidates: %+v", got)
		}
	})

	t.Run("repeated link from one adapter yields a candidate per match", func(t *testing.T) {
		msg := tu.Message("1", "a", "https://youtu.be/xyz then again https://youtu.be/xyz", at)

		got := Extract([]models.Message{msg}, adapters, ExtractOptions{})
		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %+v", got)
		}
		if got[0].URL != got[1].URL || got[1].Discovered != 1 {
			t.Errorf("unexpected candidates: %+v", got)
		}
	})

	t.Run("reaction weights exclude author and bots", func(t *testing.T) {
		msg := tu.Message("1", "alice", "https://open.spotify.com/track/AAA", at)
		msg = tu.React(msg, models.LikeEmoji, "bob", "carol", "alice", "bob")
		msg.Reactions[models.LikeEmoji] = append(msg.Reactions[models.LikeEmoji], models.User{ID: "bot", Bot: true})
		msg = tu.React(msg, models.DislikeEmoji, "dave")

		got := Extract([]models.Message{msg}, adapters, ExtractOptions{DislikeThreshold: 2})
		if len(got) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(got))
		}
		if got[0].LikeWeight != 2 || got[0].DislikeWeight != 1 {
			t.Errorf("expected likes 2 dislikes 1, got %d and %d", got[0].LikeWeight, got[0].DislikeWeight)
		}
	})

	t.Run("dislike veto", func(t *testing.T) {
		msg := tu.React(tu.Message("1", "alice", "https://youtu.be/xyz", at), models.DislikeEmoji, "bob", "carol")

		tc := []struct {
			name      string
			threshold int
			want      int
		}{
			{"at threshold", 2, 0},
			{"below threshold", 3, 1},
			{"disabled", 0, 1},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := Extract([]models.Message{msg}, adapters, ExtractOptions{DislikeThreshold: tt.threshold}); len(got) != tt.want {
					t.Errorf("expected %d candidates, got %d", tt.want, len(got))
				}
			})
		}
	})

	t.Run("discovery numbering skips vetoed links", func(t *testing.T) {
		vetoed := tu.React(tu.Message("1", "a", "https://youtu.be/one", at), models.DislikeEmoji, "x", "y")
		kept := tu.Message("2", "b", "https://youtu.be/two", at.Add(time.Minute))

		got := Extract([]models.Message{vetoed, kept}, adapters, ExtractOptions{DislikeThreshold: 2})
		if len(got) != 1 || got[0].Discovered != 0 {
			t.Errorf("unexpected candidates: %+v", got)
		}
	})
}
