package scrapers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/mixtape/internal/shared"
)

// AppleMusic scrapes album and song pages on music.apple.com.
//
// The page carries the bare song name in apple:title and "<song> by <artist>" in og:title.
type AppleMusic struct {
	fetcher *Fetcher
}

func NewAppleMusic(f *Fetcher) *AppleMusic {
	return &AppleMusic{fetcher: f}
}

func (a *AppleMusic) Title(ctx context.Context, pageURL string) (string, error) {
	doc, err := a.fetcher.Document(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("apple music: %w", err)
	}

	full := metaContent(doc, `meta[property="og:title"]`)
	title := metaContent(doc, `meta[name="apple:title"]`)
	full = strings.TrimSuffix(full, " on Apple Music")

	if title == "" {
		title, _, _ = strings.Cut(full, " by ")
	}
	if title == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrNoTitle, pageURL)
	}

	artist := strings.TrimPrefix(full, title+" by ")
	return joinTitle(title, artist), nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// joinTitle renders "title - artist", dropping the artist when it is unknown or repeats the title.
func joinTitle(title, artist string) string {
	artist = strings.TrimSpace(artist)
	if artist == "" || artist == title {
		return title
	}
	return title + " - " + artist
}
