package scrapers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
)

const youtubeOEmbedURL = "https://www.youtube.com/oembed"

// YouTube reads video titles from the public oEmbed endpoint. No API key is needed.
type YouTube struct {
	fetcher  *Fetcher
	endpoint string
}

func NewYouTube(f *Fetcher) *YouTube {
	return &YouTube{fetcher: f, endpoint: youtubeOEmbedURL}
}

// SetEndpoint points the scraper at a different oEmbed provider.
func (y *YouTube) SetEndpoint(endpoint string) { y.endpoint = endpoint }

func (y *YouTube) Title(ctx context.Context, videoURL string) (string, error) {
	params := url.Values{}
	params.Set("url", videoURL)
	params.Set("format", "json")

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := y.fetcher.JSON(ctx, y.endpoint+"?"+params.Encode(), &payload); err != nil {
		return "", fmt.Errorf("youtube oembed: %w", err)
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrNoTitle, videoURL)
	}
	return title, nil
}
