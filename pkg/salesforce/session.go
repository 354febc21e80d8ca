package salesforce

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// DefaultAPIVersion is used when a session does not name one.
const DefaultAPIVersion = "v59.0"

var ErrAlreadyRefreshed = errors.New("access token was already refreshed for this invocation")

// TokenProvider looks up, and on force refreshes, a user's access token.
type TokenProvider interface {
	Token(ctx context.Context, userID string, forceRefresh bool) (string, error)
}

// Session is the per-invocation credential state: the current token and
// whether it has already been refreshed. A token is refreshed at most once
// per session.
type Session struct {
	UserID      string
	InstanceURL string
	APIVersion  string

	provider TokenProvider

	mu        sync.Mutex
	token     string
	refreshed bool
	newToken  string
}

func NewSession(userID, instanceURL, token string, provider TokenProvider) *Session {
	return &Session{
		UserID:      userID,
		InstanceURL: strings.TrimRight(instanceURL, "/"),
		APIVersion:  DefaultAPIVersion,
		provider:    provider,
		token:       token,
	}
}

// WithAPIVersion overrides the REST API version, accepting "59.0" or "v59.0".
func (s *Session) WithAPIVersion(version string) *Session {
	if version == "" {
		return s
	}

	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	s.APIVersion = version

	return s
}

// Token returns the current access token, fetching it from the provider if
// the session was opened without one.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	if s.provider == nil {
		return "", errors.New("no access token and no token provider")
	}

	token, err := s.provider.Token(ctx, s.UserID, false)
	if err != nil {
		return "", err
	}

	s.token = token

	return token, nil
}

// Refresh forces a new token. The second call in a session returns
// ErrAlreadyRefreshed.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshed {
		return "", ErrAlreadyRefreshed
	}

	if s.provider == nil {
		return "", errors.New("no token provider to refresh with")
	}

	s.refreshed = true

	token, err := s.provider.Token(ctx, s.UserID, true)
	if err != nil {
		return "", err
	}

	s.token = token
	s.newToken = token

	return token, nil
}

// RefreshedToken returns the new token when the session refreshed one.
func (s *Session) RefreshedToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.newToken, s.newToken != ""
}

func (s *Session) dataURL(path string) string {
	return s.InstanceURL + "/services/data/" + s.APIVersion + path
}
