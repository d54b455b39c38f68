// Package fetcher provides a rate-limited HTTP JSON client for the
// market-data connectors.
package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes limits how much of a provider response is read.
const maxBodyBytes = 4 * 1024 * 1024 // 4 MB

// Options configures a Client.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// RateLimit is requests per second against the provider; Burst is the
	// limiter burst. Zero means a permissive default.
	RateLimit float64
	Burst     int

	// Headers are attached to every request (API keys and the like).
	Headers map[string]string
}

// Client is a retrying, rate-limited JSON GET client. One client per
// provider so each provider gets its own limiter.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "scout-cli/1.0"
	}
	limit := rate.Limit(opts.RateLimit)
	if limit <= 0 {
		limit = 20
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// GetJSON fetches the URL and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "fetcher: decode %s", rawURL)
	}
	return nil
}

// get performs a rate-limited GET with retry on 429 and 5xx.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := range c.opts.MaxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		body, retryable, err := c.attempt(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			return nil, err
		}

		zap.L().Warn("fetcher: request failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		backoff(ctx, attempt)
	}
	return nil, eris.Wrap(lastErr, "fetcher: all retries exhausted")
}

// attempt performs a single GET. The second return reports whether the
// failure is worth retrying.
func (c *Client) attempt(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, eris.Wrapf(err, "fetcher: get %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, eris.Errorf("fetcher: http 429 from %s", rawURL)
	case resp.StatusCode >= 500:
		return nil, true, eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL)
	case resp.StatusCode >= 400:
		return nil, false, eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, eris.Wrapf(err, "fetcher: read %s", rawURL)
	}
	return body, false, nil
}

// backoff sleeps exponentially with jitter, respecting cancellation.
func backoff(ctx context.Context, attempt int) {
	base := 500 * time.Millisecond
	maxDelay := 15 * time.Second

	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxDelay {
		d = maxDelay
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
