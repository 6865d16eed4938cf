package services

import (
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every newly issued token.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	logger   *log.Logger

	mu   sync.Mutex
	last string
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.notify(token)
	}
	return token, nil
}

// notify keeps a panicking callback from failing the request that triggered the refresh.
func (s *refreshableTokenSource) notify(token *oauth2.Token) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("token refresh callback panicked", "panic", r)
		}
	}()
	s.callback(token)
}
