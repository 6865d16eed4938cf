// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// SpotifyTrackURLPrefix precedes the track ID in shared links.
	SpotifyTrackURLPrefix = "https://open.spotify.com/track/"
	// SpotifyPlaylistURLPrefix precedes the playlist ID in shared links.
	SpotifyPlaylistURLPrefix = "https://open.spotify.com/playlist/"

	maxArtistIDs      = 50
	maxPlaylistChange = 100
	playlistPageSize  = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist. Genres are only populated on full artist objects.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents playlist metadata.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       owner  `json:"owner"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type playlistItemsPage struct {
	Items []struct {
		Track *SpotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// ToModel converts the API representation into a [models.Track].
func (t SpotifyTrack) ToModel() models.Track {
	artists := make([]models.ArtistRef, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, models.ArtistRef{ID: a.ID, Name: a.Name})
	}
	return models.Track{
		ID:         t.ID,
		URI:        t.URI,
		Title:      t.Name,
		Album:      t.Album.Name,
		Artists:    artists,
		Popularity: t.Popularity,
	}
}

// APIError is a non-2xx response from the Web API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized {
		return []error{shared.ErrTokenExpired, shared.ErrTransport}
	}
	return []error{shared.ErrAPIRequest, shared.ErrTransport}
}

func newAPIError(resp *http.Response) *APIError {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &body)
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error.Message}
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Uses [oauth2] for authentication and provides methods for playlist and track operations.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	retry          RetryPolicy
	logger         *log.Logger
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		retry:      DefaultRetryPolicy(),
		logger:     log.Default(),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetLogger replaces the logger used for retry warnings.
func (s *SpotifyService) SetLogger(l *log.Logger) { s.logger = l }

// SetBaseURL points the client at a different API root.
func (s *SpotifyService) SetBaseURL(u string) { s.baseURL = strings.TrimRight(u, "/") }

// SetRetryPolicy replaces the retry policy for subsequent requests.
func (s *SpotifyService) SetRetryPolicy(p RetryPolicy) { s.retry = p }

// SetTokenRefreshCallback registers fn to receive every token the client obtains.
// It takes effect on the next call to [SpotifyService.OAuthenticate].
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 configuration for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate configures credentials from an "access_token", "refresh_token" or "auth_code" entry.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{AccessToken: accessToken, RefreshToken: credentials["refresh_token"]})
	}

	if refreshToken := credentials["refresh_token"]; refreshToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{RefreshToken: refreshToken})
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token, refresh_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate installs token and builds a client that refreshes it when it expires.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}

	s.token = token
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		logger:   s.logger,
		last:     token.AccessToken,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

// doRequest performs an authenticated request against the Web API, retrying throttled and failed attempts.
// POST requests are only retried when throttled.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	policy := s.retry.backOff()
	attempt := 0
	resp, err := backoff.RetryWithData(func() (*http.Response, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			var retrieveErr *oauth2.RetrieveError
			switch {
			case ctx.Err() != nil:
				return nil, backoff.Permanent(ctx.Err())
			case errors.As(err, &retrieveErr):
				return nil, backoff.Permanent(fmt.Errorf("%w: %w", shared.ErrTokenExpired, err))
			case method == http.MethodPost:
				return nil, backoff.Permanent(err)
			}
			s.logger.Warn("spotify request failed", "endpoint", endpoint, "attempt", attempt, "error", err)
			return nil, err
		}

		if shouldRetry(method, resp) {
			policy.next = parseRetryAfter(resp)
			apiErr := newAPIError(resp)
			resp.Body.Close()
			s.logger.Warn("spotify request throttled", "endpoint", endpoint, "attempt", attempt, "status", apiErr.StatusCode)
			return nil, apiErr
		}
		return resp, nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		if errors.Is(err, shared.ErrTransport) || errors.Is(err, shared.ErrTokenExpired) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %w", shared.ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*models.Track, error) {
	var track SpotifyTrack
	err := s.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), nil, &track)
	if status := statusOf(err); status == http.StatusNotFound || status == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	if err != nil {
		return nil, err
	}

	m := track.ToModel()
	return &m, nil
}

// SearchTracks runs a track search and returns up to limit results.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(limit))

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, t := range response.Tracks.Items {
		tracks = append(tracks, t.ToModel())
	}
	return tracks, nil
}

// Artists retrieves full artist records, including genres, for up to 50 IDs.
func (s *SpotifyService) Artists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}
	if len(artistIDs) > maxArtistIDs {
		return nil, fmt.Errorf("%w: maximum %d artist IDs allowed", shared.ErrInvalidArgument, maxArtistIDs)
	}

	var response struct {
		Artists []*SpotifyArtist `json:"artists"`
	}
	endpoint := "/artists?ids=" + url.QueryEscape(strings.Join(artistIDs, ","))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Artists))
	for _, a := range response.Artists {
		if a == nil {
			continue
		}
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name, Genres: a.Genres})
	}
	return artists, nil
}

// Playlist retrieves playlist metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	err := s.doRequest(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID)+"?fields=id,name,description,owner,public,uri,tracks.total", nil, &playlist)
	if statusOf(err) == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTrackIDs pages through a playlist and returns its track IDs in order.
//
// Local files and unavailable entries have no ID and are skipped.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += playlistPageSize {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=items(track(id,uri)),next&limit=%d&offset=%d",
			url.PathEscape(playlistID), playlistPageSize, offset)

		var page playlistItemsPage
		err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page)
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track != nil && item.Track.ID != "" {
				ids = append(ids, item.Track.ID)
			}
		}

		if page.Next == nil {
			return ids, nil
		}
	}
}

// RemovePlaylistTracks removes all occurrences of up to 100 tracks from a playlist.
func (s *SpotifyService) RemovePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > maxPlaylistChange {
		return fmt.Errorf("%w: maximum %d tracks per removal", shared.ErrInvalidArgument, maxPlaylistChange)
	}

	type uriRef struct {
		URI string `json:"uri"`
	}
	body := struct {
		Tracks []uriRef `json:"tracks"`
	}{}
	for _, id := range trackIDs {
		body.Tracks = append(body.Tracks, uriRef{URI: trackURI(id)})
	}

	return s.doRequest(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body, nil)
}

// AddPlaylistTracks appends up to 100 tracks to a playlist in the given order.
func (s *SpotifyService) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > maxPlaylistChange {
		return fmt.Errorf("%w: maximum %d tracks per addition", shared.ErrInvalidArgument, maxPlaylistChange)
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = trackURI(id)
	}
	body := map[string][]string{"uris": uris}

	return s.doRequest(ctx, http.MethodPost, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body, nil)
}

// RenamePlaylist changes a playlist's display name.
func (s *SpotifyService) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	body := map[string]string{"name": name}
	return s.doRequest(ctx, http.MethodPut, "/playlists/"+url.PathEscape(playlistID), body, nil)
}

func trackURI(id string) string {
	return "spotify:track:" + id
}

// PlaylistURL returns the public link to a playlist.
func PlaylistURL(playlistID string) string {
	return SpotifyPlaylistURLPrefix + playlistID
}
