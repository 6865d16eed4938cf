package curation

import (
	"context"
	"regexp"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
)

// TitleFunc fetches a human-readable title for a link on an external service.
type TitleFunc func(ctx context.Context, url string) (string, error)

// ServiceAdapter recognizes one music service's links.
//
// Native adapters set TrackID and resolve by direct lookup. External adapters set
// ResolveTitle and resolve by fuzzy search.
type ServiceAdapter struct {
	Service      models.Service
	Match        func(content string) []string
	ResolveTitle TitleFunc
	TrackID      func(url string) string
}

// Native reports whether links carry a catalog ID.
func (a ServiceAdapter) Native() bool { return a.TrackID != nil }

// TitleSources supplies the scrapers for the external adapters.
type TitleSources struct {
	YouTube    TitleFunc
	Apple      TitleFunc
	SoundCloud TitleFunc
}

const trailingPunctuation = `.,;:!?)]>'"*_~|`

var (
	spotifyTrackPattern    = regexp.MustCompile(`(?i)https?://open\.spotify\.com/(?:intl-[a-z-]+/)?track/[A-Za-z0-9]+\S*`)
	spotifyTrackIDPattern  = regexp.MustCompile(`(?i)open\.spotify\.com/(?:intl-[a-z-]+/)?track/([A-Za-z0-9]+)`)
	youtubePattern         = regexp.MustCompile(`(?i)https?://(?:(?:www|m|music)\.)?(?:youtube\.com/(?:watch|shorts/)|youtu\.be/)\S+`)
	appleMusicPattern      = regexp.MustCompile(`(?i)https?://music\.apple\.com/\S+/(?:album|song)/\S+`)
	soundCloudTrackPattern = regexp.MustCompile(`(?i)https?://(?:(?:www|m|on)\.)?soundcloud\.com/\S+`)
)

// DefaultAdapters returns the registry in priority order: Spotify, YouTube, Apple Music, SoundCloud.
func DefaultAdapters(titles TitleSources) []ServiceAdapter {
	return []ServiceAdapter{
		{
			Service: models.ServiceSpotify,
			Match:   matcher(spotifyTrackPattern),
			TrackID: SpotifyTrackID,
		},
		{
			Service:      models.ServiceYouTube,
			Match:        matcher(youtubePattern),
			ResolveTitle: titles.YouTube,
		},
		{
			Service:      models.ServiceApple,
			Match:        matcher(appleMusicPattern),
			ResolveTitle: titles.Apple,
		},
		{
			Service:      models.ServiceSoundCloud,
			Match:        matcher(soundCloudTrackPattern),
			ResolveTitle: titles.SoundCloud,
		},
	}
}

// SpotifyTrackID pulls the track ID out of an open.spotify.com link, dropping any query string.
func SpotifyTrackID(url string) string {
	m := spotifyTrackIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

func matcher(re *regexp.Regexp) func(string) []string {
	return func(content string) []string {
		var urls []string
		for _, raw := range re.FindAllString(content, -1) {
			if u := strings.TrimRight(raw, trailingPunctuation); u != "" {
				urls = append(urls, u)
			}
		}
		return urls
	}
}
