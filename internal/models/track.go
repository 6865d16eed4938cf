package models

import "strings"

// Service names the music service a link points at.
type Service string

const (
	ServiceSpotify    Service = "spotify"
	ServiceYouTube    Service = "youtube"
	ServiceApple      Service = "apple"
	ServiceSoundCloud Service = "soundcloud"
)

// ArtistRef is the artist identity attached to a track.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist is a full artist record, fetched only for genre tallies.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// Track is a catalog entry as returned by lookup or search.
type Track struct {
	ID         string      `json:"id"`
	URI        string      `json:"uri"`
	Title      string      `json:"title"`
	Album      string      `json:"album"`
	Artists    []ArtistRef `json:"artists"`
	Popularity int         `json:"popularity"`
}

// ArtistNames joins the track's artist names with sep.
func (t Track) ArtistNames(sep string) string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, sep)
}

// TrackCandidate is an unresolved link found in a message.
type TrackCandidate struct {
	URL           string  `json:"url"`
	Service       Service `json:"service"`
	Author        User    `json:"author"`
	MessageID     string  `json:"message_id"`
	Discovered    int     `json:"discovered"` // position in extraction order, oldest first
	LikeWeight    int     `json:"like_weight"`
	DislikeWeight int     `json:"dislike_weight"`
}

// ResolvedTrack is a candidate mapped onto a catalog track. Identity is CatalogID.
type ResolvedTrack struct {
	Track
	CatalogID  string  `json:"catalog_id"`
	LikeWeight int     `json:"like_weight"`
	Service    Service `json:"service"`
	Author     User    `json:"author"`
	SourceURL  string  `json:"source_url"`
	Discovered int     `json:"discovered"`
}

// NewResolvedTrack joins a candidate with the catalog track it resolved to.
func NewResolvedTrack(c TrackCandidate, t Track) ResolvedTrack {
	return ResolvedTrack{
		Track:      t,
		CatalogID:  t.ID,
		LikeWeight: c.LikeWeight,
		Service:    c.Service,
		Author:     c.Author,
		SourceURL:  c.URL,
		Discovered: c.Discovered,
	}
}
