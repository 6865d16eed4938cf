package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// openBrowser is swapped out in tests.
var openBrowser = shared.OpenBrowser

// Auth runs the authorization code flow and stores the token for scheduled runs.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config, path, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if config.Spotify.ClientID == "" || config.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify.client_id and spotify.client_secret must be set", shared.ErrMissingCredentials)
	}

	svc, err := newSpotifyService(config)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.authorize(ctx, config.Server, svc, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewTokenRepository(db).Save(spotifyProvider, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.writePlainln("%s", r.palette.OK("Authorization successful"))
	r.writePlain("%s\n", r.palette.OK("Token stored in "+config.Database.Path))

	if cmd.Bool("save-config") {
		if path == "" {
			path = "config.toml"
		}
		if err := config.Spotify.Update(token); err != nil {
			return fmt.Errorf("failed to update spotify configuration: %w", err)
		}
		if err := shared.SaveConfig(path, config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.writePlain("%s\n", r.palette.OK("Tokens saved to "+path))
	}

	r.writePlain("\nYou can now use: mixtape curate --dry-run\n")
	return nil
}

// authorize serves the callback on cfg, sends the user to the consent page and waits for the token.
func (r *Runner) authorize(ctx context.Context, cfg shared.ServerConfig, oauthSrv services.OAuthService, timeout time.Duration) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = authTimeout
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger))
	router.Handler(handler)

	srv, err := server.Listen(cfg, router, r.logger)
	if err != nil {
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveErrs := make(chan error, 1)
	go func() { serveErrs <- srv.Serve(serveCtx) }()
	shutdown := func() {
		cancel()
		<-serveErrs
	}

	authURL := oauthSrv.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("%s", r.palette.Warn("Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
		shutdown()
	case err := <-serveErrs:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		shutdown()
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		shutdown()
		return nil, ctx.Err()
	}

	if result.Err != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
