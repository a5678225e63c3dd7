package shared

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultRetryBase = 500 * time.Millisecond
	defaultTimeout   = 15 * time.Second
	maxDrainBytes    = 4 << 10
)

// RetryTransport is an [http.RoundTripper] that retries transport failures, 429 and 5xx responses with linear backoff.
//
// Only 429 is retried for requests that are not idempotent, since any other failure may come after the server acted.
// GET, HEAD, OPTIONS, TRACE, PUT and DELETE are idempotent, as is any request whose context went through [AllowRetry].
// A Retry-After header longer than the computed backoff wins. Requests with a body are only retried when
// [http.Request.GetBody] is set, which is the case for bodies built from bytes/strings readers.
type RetryTransport struct {
	Base      http.RoundTripper
	Retries   int
	RetryBase time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

type retryKey struct{}

// AllowRetry marks requests made with ctx as safe to repeat after a transport failure or a 5xx response.
func AllowRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

// NewHTTPClient builds an [http.Client] with a per-request timeout and a [RetryTransport].
func NewHTTPClient(cfg HTTPConfig) *http.Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &RetryTransport{
			Base:      http.DefaultTransport,
			Retries:   cfg.Retries,
			RetryBase: cfg.RetryBase(),
		},
	}
}

// RoundTrip implements [http.RoundTripper].
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	retries := t.Retries
	if retries < 0 {
		retries = 0
	}
	step := t.RetryBase
	if step <= 0 {
		step = defaultRetryBase
	}
	sleep := t.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	ctx := req.Context()
	safe := idempotent(req)
	var lastErr error
	for attempt := 0; ; attempt++ {
		r := req
		if attempt > 0 {
			var err error
			if r, err = rewind(req); err != nil {
				return nil, err
			}
		}

		last := attempt >= retries || (req.Body != nil && req.GetBody == nil)
		wait := time.Duration(attempt+1) * step

		resp, err := base.RoundTrip(r)
		switch {
		case err != nil:
			if ctx.Err() != nil || !safe {
				return nil, err
			}
			lastErr = err
		case retryable(resp.StatusCode, safe) && !last:
			if ra := retryAfter(resp); ra > wait {
				wait = ra
			}
			io.CopyN(io.Discard, resp.Body, maxDrainBytes)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		default:
			return resp, nil
		}

		if last {
			return nil, lastErr
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}

func retryable(status int, safe bool) bool {
	return status == http.StatusTooManyRequests || (safe && status >= http.StatusInternalServerError)
}

func idempotent(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	}
	allowed, _ := req.Context().Value(retryKey{}).(bool)
	return allowed
}

// retryAfter reads a Retry-After header in either seconds or HTTP-date form.
func retryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
