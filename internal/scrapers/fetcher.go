package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

const (
	maxBodySize     = 5 << 20
	maxRedirects    = 5
	defaultTimeout  = 10 * time.Second
	defaultUA       = "mixtape/1.0 (+https://github.com/desertthunder/mixtape)"
	perHostInterval = time.Second
)

// Fetcher is a rate-limited HTTP client shared by the title scrapers.
//
// Requests wait on a global limiter and then on a limiter for the target host.
// A zero request rate disables both.
type Fetcher struct {
	client    *http.Client
	global    *rate.Limiter
	perHost   rate.Limit
	userAgent string

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewFetcher builds a fetcher from scraper settings. Zero values fall back to defaults.
func NewFetcher(cfg shared.ScraperConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit, perHost := rate.Inf, rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit, perHost = rate.Limit(cfg.RequestsPerSecond), rate.Every(perHostInterval)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUA
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		global:    rate.NewLimiter(limit, 4),
		perHost:   perHost,
		userAgent: ua,
		hosts:     make(map[string]*rate.Limiter),
	}
}

// SetClient swaps the underlying HTTP client.
func (f *Fetcher) SetClient(c *http.Client) { f.client = c }

// Get fetches rawURL and returns at most 5 MB of the body.
func (f *Fetcher) Get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: bad url %q", shared.ErrInvalidInput, rawURL)
	}

	if err := f.global.Wait(ctx); err != nil {
		return nil, err
	}
	if err := f.hostLimiter(u.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", shared.ErrHTTPStatus, resp.StatusCode, u.Host)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// Document fetches an HTML page and parses it.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := f.Get(ctx, rawURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// JSON fetches rawURL and decodes the body into v.
func (f *Fetcher) JSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.Get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (f *Fetcher) hostLimiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.hosts[host]
	if !ok {
		l = rate.NewLimiter(f.perHost, 2)
		f.hosts[host] = l
	}
	return l
}
