package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/tokens"
)

// CredentialTTL is how long a stored Google access token is trusted before it
// is refreshed.
const CredentialTTL = 50 * time.Minute

// Fields of the CRM object holding a user's Google credential.
const (
	CredentialObject      = "Google_Credential__c"
	fieldUserID           = "User_Id__c"
	fieldAccessToken      = "Access_Token__c"
	fieldRefreshToken     = "Refresh_Token__c"
	fieldLastRefreshed    = "Last_Refreshed__c"
	fieldLastModifiedDate = "LastModifiedDate"
)

var (
	ErrCredentialNotFound = errors.New("no google credential stored for user")
	ErrNoRefreshToken     = errors.New("google credential has no refresh token")
)

// RecordStore is the part of the CRM the credential lookup needs.
type RecordStore interface {
	Query(ctx context.Context, soql string) ([]map[string]any, error)
	UpdateRecord(ctx context.Context, object, id string, payload map[string]any) error
}

// TokenSource yields the Google access token for the run's user.
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// Credentials resolves the Google token of one user from the CRM, refreshing
// it when stale and writing the refreshed token back.
type Credentials struct {
	UserID string

	records   RecordStore
	refresher tokens.Refresher
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	recordID string
	refresh  string
	token    string
}

type CredentialsOption func(*Credentials)

func WithTTL(ttl time.Duration) CredentialsOption {
	return func(c *Credentials) {
		c.ttl = ttl
	}
}

func WithClock(now func() time.Time) CredentialsOption {
	return func(c *Credentials) {
		c.now = now
	}
}

func NewCredentials(userID string, records RecordStore, refresher tokens.Refresher, opts ...CredentialsOption) *Credentials {
	c := &Credentials{
		UserID:    userID,
		records:   records,
		refresher: refresher,
		ttl:       CredentialTTL,
		now:       time.Now,
		logger:    log.WithModule("sheets_credentials").With("user_id", userID),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Token returns the cached token, loading and refreshing the stored
// credential on first use or when forceRefresh is set.
func (c *Credentials) Token(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !forceRefresh {
		return c.token, nil
	}

	if c.recordID == "" {
		stale, err := c.load(ctx)
		if err != nil {
			return "", err
		}

		forceRefresh = forceRefresh || stale
	}

	if !forceRefresh {
		return c.token, nil
	}

	return c.refreshLocked(ctx)
}

func (c *Credentials) load(ctx context.Context) (bool, error) {
	query := fmt.Sprintf(
		"SELECT Id, %s, %s, %s, %s FROM %s WHERE %s = '%s' ORDER BY %s DESC LIMIT 1",
		fieldAccessToken, fieldRefreshToken, fieldLastRefreshed, fieldLastModifiedDate,
		CredentialObject, fieldUserID, escape(c.UserID), fieldLastModifiedDate,
	)

	records, err := c.records.Query(ctx, query)
	if err != nil {
		return false, fmt.Errorf("loading google credential: %w", err)
	}

	if len(records) == 0 {
		return false, fmt.Errorf("user %s: %w", c.UserID, ErrCredentialNotFound)
	}

	record := records[0]
	c.recordID = stringField(record, "Id")
	c.token = stringField(record, fieldAccessToken)
	c.refresh = stringField(record, fieldRefreshToken)

	refreshedAt, ok := parseTimestamp(stringField(record, fieldLastRefreshed))
	if !ok {
		refreshedAt, ok = parseTimestamp(stringField(record, fieldLastModifiedDate))
	}

	stale := c.token == "" || !ok || c.now().Sub(refreshedAt) > c.ttl
	c.logger.DebugContext(ctx, "google credential loaded", "stale", stale)

	return stale, nil
}

func (c *Credentials) refreshLocked(ctx context.Context) (string, error) {
	if c.refresh == "" {
		return "", fmt.Errorf("user %s: %w", c.UserID, ErrNoRefreshToken)
	}

	token, err := c.refresher.Refresh(ctx, c.refresh)
	if err != nil {
		return "", fmt.Errorf("refreshing google credential: %w", err)
	}

	c.token = token.AccessToken

	update := map[string]any{
		fieldAccessToken:   token.AccessToken,
		fieldLastRefreshed: c.now().UTC().Format(time.RFC3339),
	}

	if token.RefreshToken != "" && token.RefreshToken != c.refresh {
		c.refresh = token.RefreshToken
		update[fieldRefreshToken] = token.RefreshToken
	}

	// the refreshed token is still usable when the write-back fails
	if err := c.records.UpdateRecord(ctx, CredentialObject, c.recordID, update); err != nil {
		c.logger.WarnContext(ctx, "failed to store refreshed google credential", "error", err)
	} else {
		c.logger.InfoContext(ctx, "google credential refreshed")
	}

	return c.token, nil
}

func stringField(record map[string]any, key string) string {
	s, _ := record[key].(string)

	return s
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z0700",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
