// Package services implements the chat and catalog clients a curation run talks to.
//
// # Catalog
//
// [SpotifyService] implements [Catalog] over the Spotify Web API. It authenticates with OAuth2;
// the [oauth2.Client] refreshes expired tokens using the refresh token and reports each new token
// through the callback registered with [SpotifyService.SetTokenRefreshCallback] so it can be persisted.
// Requests are retried on 429 and 5xx responses, honouring Retry-After.
//
// # Chat
//
// [DiscordService] implements [Chat] with a bot session. It pages channel history backwards with
// a snowflake cursor and expands reaction counts into the users behind them.
//
// # OAuth Service Extension
//
// The [OAuthService] interface covers the pieces of the catalog client the interactive auth command needs.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token configured
//   - [shared.ErrTokenExpired] : the API rejected the token (401)
//   - [shared.ErrTransport] : the request failed after retries or returned a non-2xx status
//   - [shared.ErrTrackNotFound] : a track ID is unknown to the catalog
//   - [shared.ErrPlaylistNotFound] : the playlist ID is unknown or not visible
package services
