package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

// TokenStore persists token records. [repositories.SQLStore] satisfies it.
type TokenStore interface {
	LatestToken(ctx context.Context) (*models.TokenRecord, error)
	InsertToken(ctx context.Context, token *models.TokenRecord) error
}

// TokenManagerOpts configures a [TokenManager].
type TokenManagerOpts struct {
	Credentials shared.SpotifyConfig
	API         shared.APIConfig
	Store       TokenStore
	Codes       AuthorizationCodeProvider
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// TokenManager obtains bearer tokens, using the token store as a cache.
//
// A stored token is reused for [models.TokenLifetime] after it was added. After that it is exchanged for a new
// one with the stored refresh token. With nothing stored the user is sent through the authorization code flow.
// Every token the provider issues is appended to the store.
type TokenManager struct {
	config     *oauth2.Config
	store      TokenStore
	codes      AuthorizationCodeProvider
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewTokenManager creates a TokenManager from opts.
func NewTokenManager(opts TokenManagerOpts) *TokenManager {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &TokenManager{
		config: &oauth2.Config{
			ClientID:     opts.Credentials.ClientID,
			ClientSecret: opts.Credentials.ClientSecret,
			RedirectURL:  opts.Credentials.RedirectURI,
			Scopes:       opts.Credentials.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.API.AuthURL,
				TokenURL:  opts.API.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:      opts.Store,
		codes:      opts.Codes,
		httpClient: client,
		logger:     logger,
		now:        time.Now,
	}
}

// AuthURL returns the provider's authorize URL carrying client_id, response_type=code, redirect_uri, scope and state.
func (m *TokenManager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state)
}

// Authenticate returns a usable access token.
func (m *TokenManager) Authenticate(ctx context.Context) (string, error) {
	latest, err := m.store.LatestToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	if latest == nil {
		m.logger.Info("no stored token, starting authorization")
		rec, err := m.Authorize(ctx)
		if err != nil {
			return "", err
		}
		return rec.AccessToken, nil
	}

	if latest.IsValid(m.now()) {
		m.logger.Debug("using stored token", "id", latest.ID, "expires_at", latest.ExpiresAt().Format(time.RFC3339))
		return latest.AccessToken, nil
	}

	if latest.RefreshToken == "" {
		m.logger.Warn("stored token expired and has no refresh token, starting authorization", "id", latest.ID)
		rec, err := m.Authorize(ctx)
		if err != nil {
			return "", err
		}
		return rec.AccessToken, nil
	}

	m.logger.Info("stored token expired, refreshing", "id", latest.ID)
	rec, err := m.Refresh(ctx, latest)
	if err != nil {
		return "", err
	}
	return rec.AccessToken, nil
}

// Authorize runs the authorization code flow unconditionally and stores the resulting token.
//
// The code is requested from the [AuthorizationCodeProvider] on every call and is never persisted.
func (m *TokenManager) Authorize(ctx context.Context) (*models.TokenRecord, error) {
	if m.codes == nil {
		return nil, fmt.Errorf("%w: no authorization code provider configured", shared.ErrNotAuthenticated)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	code, err := m.codes.AuthorizationCode(ctx, m.AuthURL(state), state)
	if err != nil {
		return nil, err
	}

	tok, err := m.config.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return nil, m.wrap(ctx, "authorization code exchange", err)
	}

	rec, err := recordFromToken(tok, "")
	if err != nil {
		return nil, err
	}
	return m.save(ctx, rec)
}

// Refresh exchanges prev's refresh token for a new access token and stores it as a new record.
//
// The previous refresh token is carried over unless the provider rotates it.
func (m *TokenManager) Refresh(ctx context.Context, prev *models.TokenRecord) (*models.TokenRecord, error) {
	if prev == nil || prev.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	src := m.config.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: prev.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, m.wrap(ctx, "token refresh", err)
	}

	rec, err := recordFromToken(tok, prev.RefreshToken)
	if err != nil {
		return nil, err
	}
	if rec.Scope == "" {
		rec.Scope = prev.Scope
	}
	return m.save(ctx, rec)
}

func (m *TokenManager) save(ctx context.Context, rec *models.TokenRecord) (*models.TokenRecord, error) {
	rec.AddedAt = m.now()
	if err := m.store.InsertToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	m.logger.Info("stored new token", "id", rec.ID, "scope", rec.Scope, "expires_in", rec.ExpiresIn)
	return rec, nil
}

// clientContext routes oauth2 through the configured client and lets token grants be retried.
func (m *TokenManager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(shared.AllowRetry(ctx), oauth2.HTTPClient, m.httpClient)
}

// wrap classifies an oauth2 error: transport failures are network errors, everything else is an auth error.
func (m *TokenManager) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrNetwork, op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if resp := retrieveErr.Response; resp != nil &&
			(resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError) {
			return fmt.Errorf("%w: %s: token endpoint returned %s", shared.ErrNetwork, op, resp.Status)
		}

		detail := retrieveErr.ErrorCode
		if retrieveErr.ErrorDescription != "" {
			detail += ": " + retrieveErr.ErrorDescription
		}
		if detail == "" && retrieveErr.Response != nil {
			detail = retrieveErr.Response.Status
		}
		return fmt.Errorf("%w: %s rejected: %s", shared.ErrAuth, op, detail)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAuth, op, err)
}

// recordFromToken validates a token response and converts it into a record.
//
// An empty fallbackRefresh means the response must carry its own refresh token.
func recordFromToken(tok *oauth2.Token, fallbackRefresh string) (*models.TokenRecord, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrAuth)
	}
	if tok.TokenType == "" {
		return nil, fmt.Errorf("%w: token response missing token_type", shared.ErrAuth)
	}

	expiresIn, ok := tokenExpiresIn(tok)
	if !ok {
		return nil, fmt.Errorf("%w: token response missing expires_in", shared.ErrAuth)
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = fallbackRefresh
	}
	if refresh == "" {
		return nil, fmt.Errorf("%w: token response missing refresh_token", shared.ErrAuth)
	}

	scope, _ := tok.Extra("scope").(string)

	return &models.TokenRecord{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		Scope:        scope,
		ExpiresIn:    expiresIn,
		RefreshToken: refresh,
	}, nil
}

// tokenExpiresIn reads expires_in from the raw response, which may be JSON or form encoded.
func tokenExpiresIn(tok *oauth2.Token) (int, bool) {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}

	if tok.ExpiresIn > 0 {
		return int(tok.ExpiresIn), true
	}
	return 0, false
}
