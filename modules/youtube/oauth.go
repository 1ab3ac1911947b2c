package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	youtubeapi "google.golang.org/api/youtube/v3"
	"google.golang.org/api/youtubeanalytics/v2"

	"satura-server/modules/common/config"
	"satura-server/modules/common/metrics"
)

// Scopes requested from Google: read-only channel data and read-only analytics.
var Scopes = []string{
	youtubeapi.YoutubeReadonlyScope,
	youtubeanalytics.YtAnalyticsReadonlyScope,
}

// ErrMissingCredentials is wrapped by errors naming the missing variable.
var ErrMissingCredentials = errors.New("missing Google OAuth credential")

// AuthURLParams - 인증 URL 파라미터
type AuthURLParams struct {
	State       string
	RedirectURI string
}

// TokenResponse - Google 토큰 엔드포인트 응답
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// TokenError carries a failed token endpoint response.
type TokenError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// OAuth builds Google authorization URLs and exchanges or refreshes tokens.
type OAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	endpoint     oauth2.Endpoint
	httpClient   *http.Client
}

func NewOAuth(cfg *config.Config) *OAuth {
	return &OAuth{
		clientID:     strings.TrimSpace(cfg.GoogleClientID),
		clientSecret: strings.TrimSpace(cfg.GoogleClientSecret),
		redirectURI:  cfg.YoutubeCallbackURL(),
		endpoint:     google.Endpoint,
	}
}

// GetYoutubeOAuthURL - 동의 화면 URL 생성 (offline + 강제 동의 + 증분 권한)
func (o *OAuth) GetYoutubeOAuthURL(params AuthURLParams) (string, error) {
	if o.clientID == "" {
		return "", fmt.Errorf("%w: GOOGLE_CLIENT_ID", ErrMissingCredentials)
	}

	conf := o.config(params.RedirectURI)
	return conf.AuthCodeURL(params.State,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// ExchangeCodeForTokens - authorization code → 토큰
func (o *OAuth) ExchangeCodeForTokens(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	if err := o.requireCredentials(); err != nil {
		return nil, err
	}

	start := time.Now()
	token, err := o.config(redirectURI).Exchange(o.context(ctx), code)
	metrics.RecordUpstream("google_oauth", "exchange", err, start)
	if err != nil {
		return nil, tokenError("token exchange", err)
	}

	log.Info().Bool("refresh_token", token.RefreshToken != "").Msg("🔑 [YouTube] Authorization code exchanged")
	return newTokenResponse(token), nil
}

// RefreshAccessToken - refresh token 으로 새 access token 발급
func (o *OAuth) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if err := o.requireCredentials(); err != nil {
		return nil, err
	}

	start := time.Now()
	source := o.config("").TokenSource(o.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	metrics.RecordUpstream("google_oauth", "refresh", err, start)
	if err != nil {
		return nil, tokenError("token refresh", err)
	}

	log.Debug().Msg("[YouTube] Access token refreshed")
	return newTokenResponse(token), nil
}

func (o *OAuth) requireCredentials() error {
	if o.clientID == "" {
		return fmt.Errorf("%w: GOOGLE_CLIENT_ID", ErrMissingCredentials)
	}
	if o.clientSecret == "" {
		return fmt.Errorf("%w: GOOGLE_CLIENT_SECRET", ErrMissingCredentials)
	}
	return nil
}

func (o *OAuth) config(redirectURI string) *oauth2.Config {
	if strings.TrimSpace(redirectURI) == "" {
		redirectURI = o.redirectURI
	}
	return &oauth2.Config{
		ClientID:     o.clientID,
		ClientSecret: o.clientSecret,
		Endpoint:     o.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
	}
}

func (o *OAuth) context(ctx context.Context) context.Context {
	if o.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func tokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		tokenErr := &TokenError{Op: op, Body: strings.TrimSpace(string(retrieveErr.Body)), Err: err}
		if retrieveErr.Response != nil {
			tokenErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return tokenErr
	}
	return &TokenError{Op: op, Err: err}
}

func newTokenResponse(token *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		AccessToken:  token.AccessToken,
		ExpiresIn:    token.ExpiresIn,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if resp.ExpiresIn == 0 && !token.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(token.Expiry).Round(time.Second).Seconds())
	}
	if scope, ok := token.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp
}
