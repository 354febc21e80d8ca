// Package tokens stores and refreshes the CRM access tokens of form owners.
package tokens

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTokenNotFound       = errors.New("no access token stored for user")
	ErrRefreshUnavailable  = errors.New("token refresh is not available")
	ErrMissingRefreshToken = errors.New("no refresh token stored for user")
)

// Provider returns a user's access token, refreshing it first when
// forceRefresh is set.
type Provider interface {
	Token(ctx context.Context, userID string, forceRefresh bool) (string, error)
}

// Static serves a token supplied with the request and defers refreshes to
// Fallback.
type Static struct {
	AccessToken string
	Fallback    Provider
}

func (s *Static) Token(ctx context.Context, userID string, forceRefresh bool) (string, error) {
	if !forceRefresh && s.AccessToken != "" {
		return s.AccessToken, nil
	}

	if s.Fallback == nil {
		if forceRefresh {
			return "", ErrRefreshUnavailable
		}

		return "", fmt.Errorf("user %s: %w", userID, ErrTokenNotFound)
	}

	return s.Fallback.Token(ctx, userID, forceRefresh)
}
