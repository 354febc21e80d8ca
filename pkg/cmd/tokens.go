package cmd

import (
	"github.com/dukex/formflow/pkg/tokens"
	"github.com/redis/go-redis/v9"
)

const (
	SalesforceTokenURL = "https://login.salesforce.com/services/oauth2/token"
	GoogleTokenURL     = "https://oauth2.googleapis.com/token"
)

// NewTokenProvider stores CRM tokens in Redis. Without a client id, stored
// tokens are served but never refreshed.
func NewTokenProvider(client redis.UniversalClient, clientID, clientSecret, tokenURL string) tokens.Provider {
	var refresher tokens.Refresher
	if clientID != "" {
		refresher = tokens.NewOAuthRefresher(clientID, clientSecret, tokenURL)
	}

	return tokens.NewRedisProvider(client, refresher)
}

// NewGoogleRefresher returns nil when Google credentials are not configured,
// which leaves the sheet nodes without spreadsheet access.
func NewGoogleRefresher(clientID, clientSecret string) tokens.Refresher {
	if clientID == "" {
		return nil
	}

	return tokens.NewOAuthRefresher(clientID, clientSecret, GoogleTokenURL)
}
