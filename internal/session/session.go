// Package session holds the access token of the signed-in user.
//
// The token lives in a Store and is re-read on every access. A Session wraps
// the store and is the only writer: Login sets the token, while Logout and
// Expire remove it. Components that need the token receive the Session instead
// of reaching into storage themselves.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

// Session is the explicit session context shared by the client components.
type Session struct {
	store  Store
	logger *slog.Logger
}

// New creates a Session over store.
func New(store Store, logger *slog.Logger) *Session {
	return &Session{
		store:  store,
		logger: logger,
	}
}

// AccessToken returns the current token and whether one is present. Storage
// failures are logged and reported as absent.
func (s *Session) AccessToken() (string, bool) {
	token, err := s.store.Get()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			s.logger.Warn("failed to read access token", slog.Any("err", err))
		}
		return "", false
	}

	return token, true
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	_, ok := s.AccessToken()
	return ok
}

// Token implements oauth2.TokenSource so the session can authorize an HTTP transport.
func (s *Session) Token() (*oauth2.Token, error) {
	const op = "session.Session.Token"

	token, ok := s.AccessToken()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	return &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}, nil
}

// Login stores the token issued by a successful login.
func (s *Session) Login(token string) error {
	const op = "session.Session.Login"

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	if err := s.store.Set(token); err != nil {
		return fmt.Errorf("%s: failed to store access token: %w", op, err)
	}

	return nil
}

// Logout removes the token at the user's request.
func (s *Session) Logout() error {
	const op = "session.Session.Logout"

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("%s: failed to clear access token: %w", op, err)
	}

	return nil
}

// Expire removes a token the server rejected.
func (s *Session) Expire() error {
	const op = "session.Session.Expire"

	s.logger.Warn("access token rejected, clearing session")

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("%s: failed to clear access token: %w", op, err)
	}

	return nil
}
