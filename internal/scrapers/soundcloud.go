package scrapers

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
)

// SoundCloud scrapes public track pages on soundcloud.com.
//
// og:title holds the track name; the document title reads "Stream <track> by <artist> | ...".
type SoundCloud struct {
	fetcher *Fetcher
}

func NewSoundCloud(f *Fetcher) *SoundCloud {
	return &SoundCloud{fetcher: f}
}

func (s *SoundCloud) Title(ctx context.Context, pageURL string) (string, error) {
	doc, err := s.fetcher.Document(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("soundcloud: %w", err)
	}

	title := metaContent(doc, `meta[property="og:title"]`)
	full := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrNoTitle, pageURL)
	}

	full, _, _ = strings.Cut(full, " | ")
	full = strings.TrimPrefix(full, "Stream ")
	artist := ""
	if rest, ok := strings.CutPrefix(full, title+" by "); ok {
		artist = rest
	}
	return joinTitle(title, artist), nil
}
