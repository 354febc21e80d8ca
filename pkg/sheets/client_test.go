package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	mu     sync.Mutex
	tokens []string
	forced int
	err    error
}

func (f *fakeTokens) Token(_ context.Context, forceRefresh bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	if forceRefresh {
		f.forced++
	}

	return f.tokens[f.forced], nil
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []recorded
	reject   string
	values   [][]any
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if f.reject != "" && rec.Auth == "Bearer "+f.reject {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Request had invalid authentication credentials.","status":"UNAUTHENTICATED"}}`))

		return
	}

	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Sheet1!A1:Z100", "majorDimension": "ROWS", "values": f.values})
	case strings.HasSuffix(r.URL.Path, ":append"):
		_, _ = w.Write([]byte(`{"updates":{"updatedRows":1}}`))
	default:
		_, _ = w.Write([]byte(`{"updatedRows":1}`))
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI, tokens TokenSource) *Client {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	return NewClient(tokens, WithEndpoint(server.URL+"/"), WithTransport(server.Client().Transport))
}

func TestClient_Rows(t *testing.T) {
	api := &fakeSheetsAPI{values: [][]any{{"Name", "Email"}, {"Ana", "ana@example.com"}, {"Bo"}}}
	client := newTestClient(t, api, &fakeTokens{tokens: []string{"tok-1"}})

	rows, err := client.Rows(context.Background(), "sheet-123", "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Name", "Email"}, {"Ana", "ana@example.com"}, {"Bo"}}, rows)
	require.Len(t, api.requests, 1)
	assert.Equal(t, "Bearer tok-1", api.requests[0].Auth)
	assert.Equal(t, "/v4/spreadsheets/sheet-123/values/'Sheet1'", api.requests[0].Path)
}

func TestClient_Writes(t *testing.T) {
	api := &fakeSheetsAPI{}
	client := newTestClient(t, api, &fakeTokens{tokens: []string{"tok-1"}})
	ctx := context.Background()

	require.NoError(t, client.WriteHeader(ctx, "s1", "Leads", []string{"Name", "Email"}))
	require.NoError(t, client.UpdateRow(ctx, "s1", "Leads", 3, []string{"Ana", "a@x.io"}))
	require.NoError(t, client.AppendRow(ctx, "s1", "Leads", []string{"Bo", "b@x.io"}))

	require.Len(t, api.requests, 3)

	assert.Equal(t, http.MethodPut, api.requests[0].Method)
	assert.Equal(t, "/v4/spreadsheets/s1/values/'Leads'!A1", api.requests[0].Path)
	assert.Contains(t, api.requests[0].Query, "valueInputOption=USER_ENTERED")

	assert.Equal(t, "/v4/spreadsheets/s1/values/'Leads'!A3", api.requests[1].Path)
	assert.Equal(t, []any{[]any{"Ana", "a@x.io"}}, api.requests[1].Body["values"])

	assert.Equal(t, http.MethodPost, api.requests[2].Method)
	assert.Equal(t, "/v4/spreadsheets/s1/values/'Leads':append", api.requests[2].Path)
	assert.Contains(t, api.requests[2].Query, "insertDataOption=INSERT_ROWS")
}

func TestClient_RetriesOnceOnUnauthorized(t *testing.T) {
	api := &fakeSheetsAPI{reject: "tok-old", values: [][]any{{"A"}}}
	tokens := &fakeTokens{tokens: []string{"tok-old", "tok-new", "tok-newer"}}
	client := newTestClient(t, api, tokens)

	rows, err := client.Rows(context.Background(), "s1", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}}, rows)

	assert.Equal(t, 1, tokens.forced)
	require.Len(t, api.requests, 2)
	assert.Equal(t, "Bearer tok-new", api.requests[1].Auth)
}

func TestClient_GivesUpAfterSecondUnauthorized(t *testing.T) {
	api := &fakeSheetsAPI{reject: "tok-old"}
	tokens := &fakeTokens{tokens: []string{"tok-old", "tok-old"}}
	client := newTestClient(t, api, tokens)

	_, err := client.Rows(context.Background(), "s1", "Sheet1")
	require.Error(t, err)
	assert.True(t, isUnauthorized(err))
	assert.Len(t, api.requests, 2)
}

func TestOpener_FailsWithoutCredential(t *testing.T) {
	opener := NewOpener(&fakeTokens{err: ErrCredentialNotFound})

	_, err := opener.Open(context.Background())
	assert.True(t, errors.Is(err, ErrCredentialNotFound))
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Sheet1'", quoteSheet("Sheet1"))
	assert.Equal(t, "'Bob''s Leads'", quoteSheet("Bob's Leads"))
}
