// Package server provides the small HTTP surfaces mixtape needs.
//
// # OAuth Callback
//
// [OAuthHandler] completes the Spotify authorization code flow for `mixtape auth`.
// It checks the state parameter, exchanges the code for a token and delivers the
// result once on a channel. A temporary [Server] on the configured host and port
// serves it and is shut down as soon as the token arrives.
//
// # Serve Mode
//
// The long-lived `mixtape serve` process exposes [HealthHandler] on /healthz and the
// run metrics on /metrics through the same [BasicRouter].
//
// # Routing
//
// [BasicRouter] registers handlers on [http.ServeMux] method patterns behind a
// [Middleware] stack. [Logging] and [Recover] are the stock middleware.
package server
