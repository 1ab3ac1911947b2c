package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"satura-server/modules/common/config"
)

func newTestOAuth(tokenURL string) *OAuth {
	return &OAuth{
		clientID:     "client-id",
		clientSecret: "client-secret",
		redirectURI:  "https://satura.example/api/youtube/callback",
		endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestGetYoutubeOAuthURL(t *testing.T) {
	o := NewOAuth(&config.Config{GoogleClientID: "client-id", SiteURL: "https://satura.example"})

	raw, err := o.GetYoutubeOAuthURL(AuthURLParams{State: "abc", RedirectURI: "https://x/cb"})
	require.NoError(t, err)
	assert.Contains(t, raw, "state=abc")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "abc", q.Get("state"))
	assert.Equal(t, "https://x/cb", q.Get("redirect_uri"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t,
		"https://www.googleapis.com/auth/youtube.readonly https://www.googleapis.com/auth/yt-analytics.readonly",
		q.Get("scope"))
}

func TestGetYoutubeOAuthURL_DefaultRedirect(t *testing.T) {
	o := NewOAuth(&config.Config{GoogleClientID: "client-id", SiteURL: "https://satura.example"})

	raw, err := o.GetYoutubeOAuthURL(AuthURLParams{State: "abc"})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://satura.example/api/youtube/callback", parsed.Query().Get("redirect_uri"))
}

func TestGetYoutubeOAuthURL_MissingClientID(t *testing.T) {
	_, err := NewOAuth(&config.Config{}).GetYoutubeOAuthURL(AuthURLParams{State: "abc"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestMissingCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := NewOAuth(&config.Config{}).ExchangeCodeForTokens(ctx, "code", "")
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")

	_, err = NewOAuth(&config.Config{GoogleClientID: "id"}).ExchangeCodeForTokens(ctx, "code", "")
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_SECRET")

	_, err = NewOAuth(&config.Config{GoogleClientID: "id"}).RefreshAccessToken(ctx, "rt")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_SECRET")
}

func TestExchangeCodeForTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://satura.example/api/youtube/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"ya29.at","expires_in":3599,"refresh_token":"1//rt","scope":"https://www.googleapis.com/auth/youtube.readonly","token_type":"Bearer"}`))
	}))
	defer server.Close()

	tokens, err := newTestOAuth(server.URL).ExchangeCodeForTokens(context.Background(), "the-code", "")
	require.NoError(t, err)
	assert.Equal(t, "ya29.at", tokens.AccessToken)
	assert.Equal(t, "1//rt", tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, "https://www.googleapis.com/auth/youtube.readonly", tokens.Scope)
	assert.InDelta(t, 3599, tokens.ExpiresIn, 2)
}

func TestExchangeCodeForTokens_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Malformed auth code."}`))
	}))
	defer server.Close()

	_, err := newTestOAuth(server.URL).ExchangeCodeForTokens(context.Background(), "bad", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "Malformed auth code.")

	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, http.StatusBadRequest, tokenErr.StatusCode)
}

func TestRefreshAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "1//rt", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"ya29.fresh","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	tokens, err := newTestOAuth(server.URL).RefreshAccessToken(context.Background(), "1//rt")
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", tokens.AccessToken)
	assert.InDelta(t, 3600, tokens.ExpiresIn, 2)
}

func TestRefreshAccessToken_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer server.Close()

	_, err := newTestOAuth(server.URL).RefreshAccessToken(context.Background(), "revoked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token has been expired or revoked.")
}
