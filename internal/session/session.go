// Package session holds the explicit session context: the backend location and
// the bearer token obtained at login. The HTTP client reads the token from here
// before every request, and login/logout update it through Set and Clear.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpclient"
)

// Store persists the session token between runs.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	serverURL string
	token     string
	store     Store
}

var _ httpclient.TokenSource = (*Session)(nil)

// New creates a session for serverURL and restores any token kept in store.
func New(serverURL string, store Store) (*Session, error) {
	if store == nil {
		store = &MemoryStore{}
	}
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{serverURL: serverURL, token: token, store: store}, nil
}

// ServerURL returns the backend base URL.
func (s *Session) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverURL
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held that has not visibly expired.
// Opaque tokens count as valid until the backend rejects them.
func (s *Session) Authenticated() bool {
	c, err := s.Claims()
	switch {
	case errors.Is(err, ErrNoToken):
		return false
	case err != nil:
		return true
	}
	return !c.Expired(time.Now())
}

// Set stores a new token. An empty token is equivalent to Clear.
func (s *Session) Set(token string) error {
	if token == "" {
		return s.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.token = token
	log.Debug().Msg("session token stored")
	return nil
}

// Clear removes the token from memory and from the store. The in-memory token
// is dropped even if the store fails, so no later request carries it.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	log.Debug().Msg("session token cleared")
	return s.store.Clear()
}
