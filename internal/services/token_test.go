package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
	tu "github.com/desertthunder/hotlist/internal/testing"
)

// tokenEndpoint is a fake OAuth2 token endpoint that records each grant it receives.
type tokenEndpoint struct {
	mu     sync.Mutex
	grants []url.Values
	users  []string
	status int
	body   string
}

func (e *tokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, pass, _ := r.BasicAuth()

	e.mu.Lock()
	e.grants = append(e.grants, r.PostForm)
	e.users = append(e.users, user+":"+pass)
	status, body := e.status, e.body
	e.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (e *tokenEndpoint) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.grants)
}

// recordingCodes hands out a fixed code and remembers the URL it was asked to authorize.
type recordingCodes struct {
	code    string
	authURL string
	state   string
	calls   int
}

func (r *recordingCodes) AuthorizationCode(ctx context.Context, authURL, state string) (string, error) {
	r.calls++
	r.authURL, r.state = authURL, state
	return r.code, nil
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, endpoint http.Handler, store TokenStore, codes AuthorizationCodeProvider) *TokenManager {
	t.Helper()
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)
	return newManagerAt(srv.URL+"/api/token", srv.Client(), store, codes)
}

func newManagerAt(tokenURL string, client *http.Client, store TokenStore, codes AuthorizationCodeProvider) *TokenManager {
	m := NewTokenManager(TokenManagerOpts{
		Credentials: shared.SpotifyConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "http://127.0.0.1:3000/callback",
			Scopes:       []string{"playlist-modify-private", "playlist-modify-public"},
		},
		API: shared.APIConfig{
			AuthURL:  "https://accounts.example.com/authorize",
			TokenURL: tokenURL,
		},
		Store:      store,
		Codes:      codes,
		HTTPClient: client,
		Logger:     log.New(io.Discard),
	})
	m.now = func() time.Time { return testNow }
	return m
}

const fullTokenBody = `{"access_token":"access-1","token_type":"Bearer","scope":"playlist-modify-public","expires_in":3600,"refresh_token":"refresh-1"}`

func TestTokenManager(t *testing.T) {
	ctx := context.Background()

	t.Run("AuthURL", func(t *testing.T) {
		m := newManagerAt("http://127.0.0.1/token", nil, tu.NewMemoryStore(), nil)

		u, err := url.Parse(m.AuthURL("state-123"))
		if err != nil {
			t.Fatalf("invalid auth URL: %v", err)
		}
		q := u.Query()
		want := map[string]string{
			"client_id":     "client-id",
			"response_type": "code",
			"redirect_uri":  "http://127.0.0.1:3000/callback",
			"scope":         "playlist-modify-private playlist-modify-public",
			"state":         "state-123",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("expected %s=%q, got %q", k, v, q.Get(k))
			}
		}
		if u.Host != "accounts.example.com" {
			t.Errorf("unexpected host %s", u.Host)
		}
	})

	t.Run("First run exchanges authorization code", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: fullTokenBody}
		store := tu.NewMemoryStore()
		codes := &recordingCodes{code: "the-code"}
		m := newTestManager(t, endpoint, store, codes)

		token, err := m.Authenticate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "access-1" {
			t.Errorf("expected access-1, got %s", token)
		}

		if codes.calls != 1 {
			t.Fatalf("expected 1 code request, got %d", codes.calls)
		}
		if !strings.Contains(codes.authURL, "state="+codes.state) {
			t.Errorf("auth URL %s should carry state %s", codes.authURL, codes.state)
		}

		grant := endpoint.grants[0]
		if grant.Get("grant_type") != "authorization_code" || grant.Get("code") != "the-code" {
			t.Errorf("unexpected grant %v", grant)
		}
		if grant.Get("redirect_uri") != "http://127.0.0.1:3000/callback" {
			t.Errorf("expected redirect_uri in grant, got %v", grant)
		}
		if endpoint.users[0] != "client-id:client-secret" {
			t.Errorf("expected basic auth credentials, got %s", endpoint.users[0])
		}

		if store.TokenCount() != 1 {
			t.Fatalf("expected 1 stored token, got %d", store.TokenCount())
		}
		rec := store.Tokens[0]
		if rec.TokenType != "Bearer" || rec.Scope != "playlist-modify-public" || rec.ExpiresIn != 3600 || rec.RefreshToken != "refresh-1" {
			t.Errorf("stored record incomplete: %+v", rec)
		}
		if !rec.AddedAt.Equal(testNow) {
			t.Errorf("expected added_at %v, got %v", testNow, rec.AddedAt)
		}
	})

	t.Run("Valid stored token is reused", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: fullTokenBody}
		store := tu.NewMemoryStore()
		store.Tokens = []models.TokenRecord{{
			ID: "t1", AccessToken: "stored", TokenType: "Bearer", ExpiresIn: 3600,
			RefreshToken: "r", AddedAt: testNow.Add(-59 * time.Minute),
		}}
		m := newTestManager(t, endpoint, store, StaticCodeProvider("unused"))

		token, err := m.Authenticate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "stored" {
			t.Errorf("expected stored token, got %s", token)
		}
		if endpoint.calls() != 0 {
			t.Errorf("expected no token endpoint calls, got %d", endpoint.calls())
		}
		if store.TokenCount() != 1 {
			t.Errorf("expected no new records, got %d", store.TokenCount())
		}
	})

	t.Run("Expired token is refreshed", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: `{"access_token":"access-2","token_type":"Bearer","scope":"playlist-modify-public","expires_in":3600}`}
		store := tu.NewMemoryStore()
		store.Tokens = []models.TokenRecord{{
			ID: "t1", AccessToken: "old", TokenType: "Bearer", ExpiresIn: 3600,
			RefreshToken: "refresh-1", AddedAt: testNow.Add(-time.Hour),
		}}
		codes := &recordingCodes{code: "unused"}
		m := newTestManager(t, endpoint, store, codes)

		token, err := m.Authenticate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "access-2" {
			t.Errorf("expected access-2, got %s", token)
		}
		if codes.calls != 0 {
			t.Error("refresh must not request an authorization code")
		}

		grant := endpoint.grants[0]
		if grant.Get("grant_type") != "refresh_token" || grant.Get("refresh_token") != "refresh-1" {
			t.Errorf("unexpected grant %v", grant)
		}

		if store.TokenCount() != 2 {
			t.Fatalf("expected 2 stored tokens, got %d", store.TokenCount())
		}
		latest, _ := store.LatestToken(ctx)
		if latest.AccessToken != "access-2" || latest.RefreshToken != "refresh-1" {
			t.Errorf("expected new record reusing refresh token, got %+v", latest)
		}
		if store.Tokens[0].AccessToken != "old" {
			t.Error("previous record must not be mutated")
		}
	})

	t.Run("Refresh is retried after a server error", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: `{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`}
		var hits atomic.Int32
		srv := httptest.NewServer(flaky(1, http.StatusBadGateway, &hits, endpoint))
		t.Cleanup(srv.Close)

		store := tu.NewMemoryStore()
		store.Tokens = []models.TokenRecord{{
			ID: "t1", AccessToken: "old", TokenType: "Bearer", ExpiresIn: 3600,
			RefreshToken: "refresh-1", AddedAt: testNow.Add(-time.Hour),
		}}
		client := shared.NewHTTPClient(shared.HTTPConfig{Retries: 2, RetryBaseMS: 1})
		m := newManagerAt(srv.URL+"/api/token", client, store, nil)

		token, err := m.Authenticate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "access-2" || hits.Load() != 2 || endpoint.calls() != 1 {
			t.Errorf("expected access-2 after one retry, got %q with %d requests", token, hits.Load())
		}
	})

	t.Run("Rotated refresh token is stored", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: `{"access_token":"access-2","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-2"}`}
		store := tu.NewMemoryStore()
		store.Tokens = []models.TokenRecord{{
			AccessToken: "old", TokenType: "Bearer", Scope: "s", ExpiresIn: 3600,
			RefreshToken: "refresh-1", AddedAt: testNow.Add(-2 * time.Hour),
		}}
		m := newTestManager(t, endpoint, store, nil)

		if _, err := m.Authenticate(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		latest, _ := store.LatestToken(ctx)
		if latest.RefreshToken != "refresh-2" {
			t.Errorf("expected rotated refresh token, got %s", latest.RefreshToken)
		}
		if latest.Scope != "s" {
			t.Errorf("expected scope carried over, got %q", latest.Scope)
		}
	})

	t.Run("Expired token without refresh token reauthorizes", func(t *testing.T) {
		endpoint := &tokenEndpoint{body: fullTokenBody}
		store := tu.NewMemoryStore()
		store.Tokens = []models.TokenRecord{{AccessToken: "old", TokenType: "Bearer", ExpiresIn: 3600, AddedAt: testNow.Add(-3 * time.Hour)}}
		codes := &recordingCodes{code: "the-code"}
		m := newTestManager(t, endpoint, store, codes)

		token, err := m.Authenticate(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "access-1" || codes.calls != 1 {
			t.Errorf("expected full authorization, got token %s after %d code requests", token, codes.calls)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
			want   error
		}{
			{"Provider rejects code", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`, shared.ErrAuth},
			{"Missing expires_in", http.StatusOK, `{"access_token":"a","token_type":"Bearer","refresh_token":"r"}`, shared.ErrAuth},
			{"Missing token_type", http.StatusOK, `{"access_token":"a","expires_in":3600,"refresh_token":"r"}`, shared.ErrAuth},
			{"Missing refresh_token", http.StatusOK, `{"access_token":"a","token_type":"Bearer","expires_in":3600}`, shared.ErrAuth},
			{"Missing access_token", http.StatusOK, `{"token_type":"Bearer","expires_in":3600,"refresh_token":"r"}`, shared.ErrAuth},
			{"Provider unavailable", http.StatusServiceUnavailable, `{}`, shared.ErrNetwork},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := tu.NewMemoryStore()
				m := newTestManager(t, &tokenEndpoint{status: tt.status, body: tt.body}, store, StaticCodeProvider("c"))

				_, err := m.Authenticate(ctx)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if store.TokenCount() != 0 {
					t.Errorf("expected nothing stored, got %d", store.TokenCount())
				}
			})
		}

		t.Run("Transport failure", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			tokenURL := srv.URL + "/api/token"
			srv.Close()

			m := newManagerAt(tokenURL, nil, tu.NewMemoryStore(), StaticCodeProvider("c"))
			if _, err := m.Authenticate(ctx); !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})

		t.Run("Refresh rejected", func(t *testing.T) {
			store := tu.NewMemoryStore()
			store.Tokens = []models.TokenRecord{{AccessToken: "old", TokenType: "Bearer", RefreshToken: "revoked", AddedAt: testNow.Add(-2 * time.Hour)}}
			m := newTestManager(t, &tokenEndpoint{status: http.StatusBadRequest, body: `{"error":"invalid_grant"}`}, store, nil)

			_, err := m.Authenticate(ctx)
			if !errors.Is(err, shared.ErrAuth) {
				t.Errorf("expected ErrAuth, got %v", err)
			}
			if err == nil || !strings.Contains(err.Error(), "invalid_grant") {
				t.Errorf("expected provider error code in message, got %v", err)
			}
		})

		t.Run("Store failure", func(t *testing.T) {
			store := tu.NewMemoryStore()
			store.Err = fmt.Errorf("disk full")
			m := newTestManager(t, &tokenEndpoint{body: fullTokenBody}, store, StaticCodeProvider("c"))

			if _, err := m.Authenticate(ctx); err == nil {
				t.Error("expected error from store")
			}
		})

		t.Run("No code provider", func(t *testing.T) {
			m := newTestManager(t, &tokenEndpoint{body: fullTokenBody}, tu.NewMemoryStore(), nil)
			if _, err := m.Authenticate(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("Refresh requires refresh token", func(t *testing.T) {
		m := newManagerAt("http://127.0.0.1/token", nil, tu.NewMemoryStore(), nil)
		if _, err := m.Refresh(ctx, &models.TokenRecord{AccessToken: "a"}); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}
