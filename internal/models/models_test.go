package models

import (
	"testing"
	"time"
)

func TestMessageReactionWeight(t *testing.T) {
	author := User{ID: "author"}
	msg := Message{
		ID:     "m1",
		Author: author,
		Reactions: map[string][]User{
			LikeEmoji: {
				{ID: "a"},
				{ID: "b"},
				{ID: "a"},
				author,
				{ID: "bot", Bot: true},
			},
			DislikeEmoji: {{ID: "c"}},
		},
	}

	tc := []struct {
		name  string
		emoji string
		want  int
	}{
		{"distinct humans excluding author", LikeEmoji, 2},
		{"single dislike", DislikeEmoji, 1},
		{"missing emoji", "🔥", 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := msg.ReactionWeight(tt.emoji); got != tt.want {
				t.Errorf("ReactionWeight(%q) = %d, want %d", tt.emoji, got, tt.want)
			}
		})
	}

	t.Run("nil reactions", func(t *testing.T) {
		if got := (Message{}).ReactionWeight(LikeEmoji); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}

func TestUserMention(t *testing.T) {
	if got := (User{ID: "42"}).Mention(); got != "<@42>" {
		t.Errorf("Mention() = %q", got)
	}
}

func TestWindowContains(t *testing.T) {
	from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	w := Window{From: from, To: to}

	tc := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"lower bound", from, true},
		{"upper bound", to, true},
		{"inside", from.Add(48 * time.Hour), true},
		{"before", from.Add(-time.Nanosecond), false},
		{"after", to.Add(time.Nanosecond), false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.at); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSortStats(t *testing.T) {
	stats := []Stat{
		{Key: "b", DisplayName: "Beta", Weight: 1},
		{Key: "c", DisplayName: "Gamma", Weight: 3},
		{Key: "a", DisplayName: "Alpha", Weight: 1},
	}
	SortStats(stats)

	want := []string{"c", "a", "b"}
	for i, key := range want {
		if stats[i].Key != key {
			t.Errorf("position %d: expected %s, got %s", i, key, stats[i].Key)
		}
	}
}

func TestResolvedTrack(t *testing.T) {
	candidate := TrackCandidate{
		URL:        "https://youtu.be/x",
		Service:    ServiceYouTube,
		Author:     User{ID: "u"},
		Discovered: 4,
		LikeWeight: 2,
	}
	track := Track{
		ID:      "AAA",
		Title:   "Song",
		Artists: []ArtistRef{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}},
	}

	r := NewResolvedTrack(candidate, track)
	if r.CatalogID != "AAA" || r.LikeWeight != 2 || r.Service != ServiceYouTube || r.Discovered != 4 {
		t.Errorf("unexpected resolved track: %+v", r)
	}
	if r.ArtistNames(", ") != "One, Two" {
		t.Errorf("ArtistNames() = %q", r.ArtistNames(", "))
	}

	stats := Stats{Tracks: []ResolvedTrack{r, NewResolvedTrack(candidate, Track{ID: "BBB"})}}
	if ids := stats.TrackIDs(); len(ids) != 2 || ids[0] != "AAA" || ids[1] != "BBB" {
		t.Errorf("TrackIDs() = %v", ids)
	}
}

func TestStoredTokenValidate(t *testing.T) {
	tc := []struct {
		name    string
		token   *StoredToken
		wantErr bool
	}{
		{"valid", NewStoredToken("spotify", "a", "r", time.Time{}), false},
		{"refresh only", NewStoredToken("spotify", "", "r", time.Time{}), false},
		{"no provider", NewStoredToken("", "a", "", time.Time{}), true},
		{"no tokens", NewStoredToken("spotify", "", "", time.Time{}), true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.token.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
