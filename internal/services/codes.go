package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hotlist/internal/server"
	"github.com/desertthunder/hotlist/internal/shared"
)

// DefaultCallbackTimeout bounds how long [CallbackCodeProvider] waits for the browser redirect.
const DefaultCallbackTimeout = 2 * time.Minute

// AuthorizationCodeProvider obtains a one-time authorization code for authURL.
//
// state is the CSRF token embedded in authURL; implementations reject redirects carrying a different one.
type AuthorizationCodeProvider interface {
	AuthorizationCode(ctx context.Context, authURL, state string) (string, error)
}

// StaticCodeProvider always returns the same code.
type StaticCodeProvider string

func (c StaticCodeProvider) AuthorizationCode(ctx context.Context, authURL, state string) (string, error) {
	if c == "" {
		return "", fmt.Errorf("%w: empty authorization code", shared.ErrAuth)
	}
	return string(c), nil
}

// PromptFunc reads one line of input from the user.
type PromptFunc func(ctx context.Context, title, placeholder string) (string, error)

// PromptCodeProvider opens the authorize URL and asks the user to paste the URL they were redirected to.
type PromptCodeProvider struct {
	Open   shared.BrowserOpener
	Prompt PromptFunc
	Out    io.Writer
	Logger *log.Logger
}

// AuthorizationCode implements [AuthorizationCodeProvider].
func (p *PromptCodeProvider) AuthorizationCode(ctx context.Context, authURL, state string) (string, error) {
	if p.Prompt == nil {
		return "", fmt.Errorf("%w: no prompt configured", shared.ErrNotAuthenticated)
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}

	if p.Out != nil {
		fmt.Fprintf(p.Out, "Open this URL to authorize hotlist:\n\n  %s\n\n", authURL)
	}
	if p.Open != nil {
		if err := p.Open(authURL); err != nil {
			logger.Warn("could not open browser", "error", err)
		}
	}

	raw, err := p.Prompt(ctx, "Paste the URL you were redirected to", "http://127.0.0.1:3000/callback?code=...")
	if err != nil {
		return "", err
	}
	return ExtractCode(raw, state)
}

// ExtractCode pulls the authorization code out of a pasted redirect URL.
//
// An error parameter, a missing code, or a state other than the one sent are all [shared.ErrAuth].
// The state check is skipped only when no state was sent.
func ExtractCode(redirectURL, state string) (string, error) {
	redirectURL = strings.TrimSpace(redirectURL)
	if redirectURL == "" {
		return "", fmt.Errorf("%w: empty redirect URL", shared.ErrAuth)
	}

	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect URL: %v", shared.ErrAuth, err)
	}

	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("%w: authorization denied: %s", shared.ErrAuth, e)
	}
	if state != "" && q.Get("state") != state {
		return "", fmt.Errorf("%w: state mismatch in redirect URL", shared.ErrAuth)
	}

	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: redirect URL has no code parameter", shared.ErrAuth)
	}
	return code, nil
}

// CallbackCodeProvider serves the redirect URI locally and captures the code from the browser redirect.
type CallbackCodeProvider struct {
	Addr        string // host:port to listen on
	RedirectURI string // only the path is used
	Open        shared.BrowserOpener
	Timeout     time.Duration
	Out         io.Writer
	Logger      *log.Logger
}

// AuthorizationCode implements [AuthorizationCodeProvider].
func (p *CallbackCodeProvider) AuthorizationCode(ctx context.Context, authURL, state string) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	path := "/callback"
	if u, err := url.Parse(p.RedirectURI); err == nil && u.Path != "" {
		path = u.Path
	}

	oauthHandler := server.NewOAuthHandler(path, state)
	router := server.NewBasicRouter()
	router.Use(server.LogRequests(logger))
	router.Handler(oauthHandler)

	ln, err := net.Listen("tcp", p.Addr)
	if err != nil {
		return "", fmt.Errorf("%w: failed to start callback server: %v", shared.ErrNetwork, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting OAuth callback server", "addr", ln.Addr().String(), "path", path)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	if p.Out != nil {
		fmt.Fprintf(p.Out, "→ Opening browser for Spotify authorization...\n")
	}
	if p.Open != nil {
		if err := p.Open(authURL); err != nil {
			logger.Warn("failed to open browser automatically", "error", err)
			if p.Out != nil {
				fmt.Fprintf(p.Out, "Please open this URL in your browser:\n%s\n\n", authURL)
			}
		}
	}
	if p.Out != nil {
		fmt.Fprintf(p.Out, "→ Waiting for authorization (%s timeout)...\n", timeout)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-oauthHandler.Result():
		if err := result.Error(); err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrAuth, err)
		}
		return result.Code, nil
	case err := <-serverErrors:
		return "", fmt.Errorf("%w: callback server: %v", shared.ErrNetwork, err)
	case <-timer.C:
		return "", fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var (
	_ AuthorizationCodeProvider = StaticCodeProvider("")
	_ AuthorizationCodeProvider = (*PromptCodeProvider)(nil)
	_ AuthorizationCodeProvider = (*CallbackCodeProvider)(nil)
)
