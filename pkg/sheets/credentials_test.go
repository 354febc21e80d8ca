package sheets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dukex/formflow/pkg/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeRefresher struct {
	calls int
	token *oauth2.Token
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	return f.token, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func credentialRecord(refreshedAt time.Time) []map[string]any {
	return []map[string]any{{
		"Id":                "a01",
		"Access_Token__c":   "ya29.old",
		"Refresh_Token__c":  "1//refresh",
		"Last_Refreshed__c": refreshedAt.Format(time.RFC3339),
	}}
}

func TestCredentials_FreshTokenIsReused(t *testing.T) {
	crm := &mocks.MockCRM{}
	crm.On("Query", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "FROM Google_Credential__c WHERE User_Id__c = 'u-1'")
	})).Return(credentialRecord(fixedNow.Add(-10*time.Minute)), nil).Once()

	refresher := &fakeRefresher{}
	creds := NewCredentials("u-1", crm, refresher, WithClock(func() time.Time { return fixedNow }))

	token, err := creds.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "ya29.old", token)

	token, err = creds.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "ya29.old", token)

	assert.Zero(t, refresher.calls)
	crm.AssertExpectations(t)
}

func TestCredentials_StaleTokenIsRefreshedAndStored(t *testing.T) {
	crm := &mocks.MockCRM{}
	crm.On("Query", mock.Anything, mock.Anything).Return(credentialRecord(fixedNow.Add(-2*time.Hour)), nil)
	crm.On("UpdateRecord", mock.Anything, CredentialObject, "a01", map[string]any{
		"Access_Token__c":   "ya29.new",
		"Last_Refreshed__c": fixedNow.Format(time.RFC3339),
	}).Return(nil)

	refresher := &fakeRefresher{token: &oauth2.Token{AccessToken: "ya29.new"}}
	creds := NewCredentials("u-1", crm, refresher, WithClock(func() time.Time { return fixedNow }))

	token, err := creds.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "ya29.new", token)
	assert.Equal(t, 1, refresher.calls)
	crm.AssertExpectations(t)
}

func TestCredentials_WriteBackFailureKeepsToken(t *testing.T) {
	crm := &mocks.MockCRM{}
	crm.On("Query", mock.Anything, mock.Anything).Return(credentialRecord(fixedNow), nil)
	crm.On("UpdateRecord", mock.Anything, CredentialObject, "a01", mock.Anything).Return(errors.New("locked"))

	refresher := &fakeRefresher{token: &oauth2.Token{AccessToken: "ya29.forced", RefreshToken: "1//rotated"}}
	creds := NewCredentials("u-1", crm, refresher, WithClock(func() time.Time { return fixedNow }))

	token, err := creds.Token(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "ya29.forced", token)
}

func TestCredentials_Errors(t *testing.T) {
	t.Run("no credential", func(t *testing.T) {
		crm := &mocks.MockCRM{}
		crm.On("Query", mock.Anything, mock.Anything).Return([]map[string]any{}, nil)

		_, err := NewCredentials("u-2", crm, &fakeRefresher{}).Token(context.Background(), false)
		assert.ErrorIs(t, err, ErrCredentialNotFound)
	})

	t.Run("stale without refresh token", func(t *testing.T) {
		crm := &mocks.MockCRM{}
		crm.On("Query", mock.Anything, mock.Anything).Return([]map[string]any{{"Id": "a02", "Access_Token__c": "x"}}, nil)

		_, err := NewCredentials("u-3", crm, &fakeRefresher{}).Token(context.Background(), false)
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})
}
