package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/formflow/pkg/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldInstanceURL  = "instance_url"
	fieldUpdatedAt    = "updated_at"

	defaultKeyPrefix = "formflow:tokens:"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthRefresher uses the refresh-token grant of an oauth2 config.
type OAuthRefresher struct {
	Config *oauth2.Config
}

// NewOAuthRefresher configures the refresh-token grant against tokenURL.
func NewOAuthRefresher(clientID, clientSecret, tokenURL string) *OAuthRefresher {
	return &OAuthRefresher{Config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}
}

func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return r.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

// RedisProvider keeps one hash per user holding the access and refresh tokens.
type RedisProvider struct {
	client    redis.UniversalClient
	refresher Refresher
	prefix    string
	logger    *slog.Logger
}

func NewRedisProvider(client redis.UniversalClient, refresher Refresher) *RedisProvider {
	return &RedisProvider{
		client:    client,
		refresher: refresher,
		prefix:    defaultKeyPrefix,
		logger:    log.WithModule("tokens"),
	}
}

func (p *RedisProvider) key(userID string) string {
	return p.prefix + userID
}

func (p *RedisProvider) Token(ctx context.Context, userID string, forceRefresh bool) (string, error) {
	fields, err := p.client.HGetAll(ctx, p.key(userID)).Result()
	if err != nil {
		return "", fmt.Errorf("reading tokens for %s: %w", userID, err)
	}

	if len(fields) == 0 {
		return "", fmt.Errorf("user %s: %w", userID, ErrTokenNotFound)
	}

	if !forceRefresh && fields[fieldAccessToken] != "" {
		return fields[fieldAccessToken], nil
	}

	refreshToken := fields[fieldRefreshToken]
	if refreshToken == "" {
		if forceRefresh {
			return "", fmt.Errorf("user %s: %w", userID, ErrMissingRefreshToken)
		}

		return "", fmt.Errorf("user %s: %w", userID, ErrTokenNotFound)
	}

	if p.refresher == nil {
		return "", ErrRefreshUnavailable
	}

	token, err := p.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("refreshing token for %s: %w", userID, err)
	}

	updates := map[string]any{
		fieldAccessToken: token.AccessToken,
		fieldUpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		updates[fieldRefreshToken] = token.RefreshToken
	}

	if err := p.client.HSet(ctx, p.key(userID), updates).Err(); err != nil {
		p.logger.WarnContext(ctx, "refreshed token could not be stored", "user_id", userID, "error", err)
	}

	p.logger.InfoContext(ctx, "access token refreshed", "user_id", userID)

	return token.AccessToken, nil
}

// Store saves a user's tokens, used when a user connects their org.
func (p *RedisProvider) Store(ctx context.Context, userID, instanceURL string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("access token is required")
	}

	values := map[string]any{
		fieldAccessToken: token.AccessToken,
		fieldInstanceURL: instanceURL,
		fieldUpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	if token.RefreshToken != "" {
		values[fieldRefreshToken] = token.RefreshToken
	}

	return p.client.HSet(ctx, p.key(userID), values).Err()
}
