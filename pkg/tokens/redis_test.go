package tokens

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestRedisProvider_ReturnsStoredToken(t *testing.T) {
	_, client := newRedis(t)
	provider := NewRedisProvider(client, nil)

	require.NoError(t, provider.Store(context.Background(), "u1", "https://org.example", &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))

	token, err := provider.Token(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
}

func TestRedisProvider_ForceRefresh(t *testing.T) {
	mr, client := newRedis(t)
	server := tokenServer(t, "access-2")

	provider := NewRedisProvider(client, NewOAuthRefresher("client-id", "secret", server.URL))

	mr.HSet("formflow:tokens:u1", "access_token", "access-1", "refresh_token", "refresh-1")

	token, err := provider.Token(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, "access-2", mr.HGet("formflow:tokens:u1", "access_token"))
	assert.Equal(t, "refresh-1", mr.HGet("formflow:tokens:u1", "refresh_token"))
}

func TestRedisProvider_NotFound(t *testing.T) {
	_, client := newRedis(t)
	provider := NewRedisProvider(client, nil)

	_, err := provider.Token(context.Background(), "nobody", false)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedisProvider_ForceWithoutRefreshToken(t *testing.T) {
	mr, client := newRedis(t)
	mr.HSet("formflow:tokens:u1", "access_token", "access-1")

	provider := NewRedisProvider(client, NewOAuthRefresher("id", "secret", "http://unused"))

	_, err := provider.Token(context.Background(), "u1", true)
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestStatic(t *testing.T) {
	static := &Static{AccessToken: "header-token"}

	token, err := static.Token(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "header-token", token)

	_, err = static.Token(context.Background(), "u1", true)
	assert.ErrorIs(t, err, ErrRefreshUnavailable)

	_, err = (&Static{}).Token(context.Background(), "u1", false)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
