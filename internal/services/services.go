package services

import (
	"context"

	"github.com/desertthunder/mixtape/internal/models"
	"golang.org/x/oauth2"
)

// Catalog is the music catalog a run resolves tracks against and writes the playlist to.
type Catalog interface {
	// Track looks up a single track by catalog ID. Unknown IDs return [shared.ErrTrackNotFound].
	Track(ctx context.Context, id string) (*models.Track, error)

	// SearchTracks runs a free-text track search and returns at most limit results.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Artists fetches full artist records for up to 50 IDs.
	Artists(ctx context.Context, ids []string) ([]models.Artist, error)

	// PlaylistTrackIDs returns the IDs currently in a playlist, in playlist order.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// RemovePlaylistTracks removes every occurrence of up to 100 tracks.
	RemovePlaylistTracks(ctx context.Context, playlistID string, ids []string) error

	// AddPlaylistTracks appends up to 100 tracks, preserving order.
	AddPlaylistTracks(ctx context.Context, playlistID string, ids []string) error

	// RenamePlaylist sets the playlist's display name.
	RenamePlaylist(ctx context.Context, playlistID, name string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Chat is the chat platform messages are read from and reports are posted to.
type Chat interface {
	// MessagesBefore returns up to limit messages older than cursor, newest first.
	MessagesBefore(ctx context.Context, channelID string, cursor models.Cursor, limit int) ([]models.Message, error)

	// SendMessage posts content to a channel.
	SendMessage(ctx context.Context, channelID, content string) error
}

// OAuthService is implemented by catalog clients that support the authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
