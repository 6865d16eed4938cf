package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler completes the authorization code flow on /callback.
//
// Only the first callback is processed; the result is delivered once on [OAuthHandler.Result].
type OAuthHandler struct {
	config *oauth2.Config
	state  string
	result chan OAuthResult

	mu   sync.Mutex
	done bool
}

// NewOAuthHandler expects state to be the random value sent with the authorization URL.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config: config,
		state:  state,
		result: make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.done = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(OAuthResult{Err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(OAuthResult{Err: fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.send(OAuthResult{Err: fmt.Errorf("%w: token exchange: %w", shared.ErrAuthFailed, err)})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, successPage)
}

func (h *OAuthHandler) send(result OAuthResult) {
	h.result <- result
	close(h.result)
}

// Result receives exactly one value and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>mixtape is connected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; color: #fff; }
        h1 { color: #1DB954; }
    </style>
</head>
<body>
    <div>
        <h1>Spotify connected</h1>
        <p>mixtape can now update your playlist. You can close this window.</p>
    </div>
</body>
</html>
`
