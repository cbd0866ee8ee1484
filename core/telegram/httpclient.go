package telegram

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/ayatbot/core/logger"
	"github.com/m3rciful/ayatbot/core/telegram/netutil"
)

// HTTPClientOptions tunes NewHTTPClient. Zero values take the defaults.
type HTTPClientOptions struct {
	// Timeout bounds a whole request including retries. Default 30s.
	Timeout time.Duration
	// HeaderTimeout bounds the wait for response headers. Long polling
	// needs it above the poll timeout. Default 5s.
	HeaderTimeout time.Duration
	// Retries is the number of extra attempts. Default 3, negative disables.
	Retries int
	// Backoff grows linearly with the attempt number. Default 2s.
	Backoff time.Duration
	// Component names the logger used for retry lines. Default "http".
	Component string
}

// NewHTTPClient returns a client whose transport retries transient network
// failures, and 502/503/504 answers to GET and HEAD requests.
func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HeaderTimeout <= 0 {
		opts.HeaderTimeout = 5 * time.Second
	}
	switch {
	case opts.Retries == 0:
		opts.Retries = 3
	case opts.Retries < 0:
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.Component == "" {
		opts.Component = "http"
	}

	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.HeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			base:      base,
			retries:   opts.Retries,
			backoff:   opts.Backoff,
			component: opts.Component,
		},
	}
}

type retryTransport struct {
	base      http.RoundTripper
	retries   int
	backoff   time.Duration
	component string
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 1; ; attempt++ {
		r := req
		if attempt > 1 {
			var err error
			if r, err = rewind(req); err != nil {
				return nil, err
			}
		}
		resp, err := t.base.RoundTrip(r)
		if attempt > t.retries || !replayable(req) || !retryable(req, resp, err) {
			return resp, err
		}

		attrs := []slog.Attr{
			slog.String("method", req.Method),
			slog.String("host", req.URL.Host),
			slog.Int("attempts", attempt),
		}
		if resp != nil {
			attrs = append(attrs, slog.Int("http_code", resp.StatusCode))
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
		}
		delay := t.backoff * time.Duration(attempt)
		logger.Debug(ctx, t.component, "http.retry", append(attrs, slog.Duration("backoff", delay))...)
		if !wait(ctx, delay) {
			return nil, ctx.Err()
		}
	}
}

func retryable(req *http.Request, resp *http.Response, err error) bool {
	if err != nil {
		return netutil.ShouldRetry(err)
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return false
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
