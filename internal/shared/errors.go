package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrTransport          = fmt.Errorf("transport failure")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrHTTPStatus         = fmt.Errorf("unexpected HTTP status")
	ErrNoTitle            = fmt.Errorf("no title found on page")

	// Empty-result conditions end a run early without touching the playlist.
	ErrNoMessages      = fmt.Errorf("no messages in window")
	ErrNoCandidates    = fmt.Errorf("no track links found")
	ErrNoTracks        = fmt.Errorf("no tracks resolved")
	ErrNothingToWrite  = fmt.Errorf("refusing to replace playlist with an empty track list")
	ErrMutationSkipped = fmt.Errorf("not enough time left to mutate playlist")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// IsEmptyResult reports whether err marks a run that ended early because there was nothing to curate.
func IsEmptyResult(err error) bool {
	for _, target := range []error{ErrNoMessages, ErrNoCandidates, ErrNoTracks} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
