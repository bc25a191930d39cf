package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxFeedBodySize = 1 << 20 // 1MB

const defaultRequestTimeout = 30 * time.Second

// connection pooling limits to prevent resource exhaustion when polling many feeds
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// FetchResult holds the outcome of a single conditional feed fetch.
type FetchResult struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Content is the response body, limited to 1MB. nil when the server
	// answered 304 Not Modified.
	Content []byte

	// ETag is the validator to store for the next conditional request.
	// On a 304 it echoes the request validator unchanged; otherwise it is
	// the response's own ETag header, possibly empty.
	ETag string

	// LastModified is the Last-Modified validator, handled like ETag.
	LastModified string

	// Latency is the total time taken by the request.
	Latency time.Duration
}

// Client fetches feed URLs with conditional-request headers and a shared
// concurrency cap.
//
// The cap is a counting semaphore acquired before each request and released
// unconditionally afterwards, protecting the outbound connection pool and
// the remote servers from simultaneous bursts across all providers.
type Client struct {
	httpClient *http.Client
	sem        chan struct{}
	timeout    time.Duration
}

// NewClient creates a [Client] allowing at most maxConcurrent simultaneous
// in-flight requests. maxConcurrent values below 1 are treated as 1.
func NewClient(maxConcurrent int) *Client {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Client{
		httpClient: &http.Client{
			// no client-level timeout; per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		sem:     make(chan struct{}, maxConcurrent),
		timeout: defaultRequestTimeout,
	}
}

// Fetch requests url, sending If-None-Match and If-Modified-Since when the
// corresponding validator is non-empty.
//
// A 304 response yields Content == nil with the request validators echoed
// back unchanged, so callers can store the result without losing them. Any
// other status yields the body plus the response's own validators, which
// may be empty when the server sent none.
//
// Transport and read failures return a non-nil error; HTTP error statuses
// do not (the body, often an error page, simply parses to zero entries).
func (c *Client) Fetch(ctx context.Context, url, etag, lastModified string) (FetchResult, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	}
	defer func() { <-c.sem }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FetchResult{Latency: time.Since(start)}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		return FetchResult{
			StatusCode:   resp.StatusCode,
			ETag:         etag,
			LastModified: lastModified,
			Latency:      time.Since(start),
		}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		return FetchResult{StatusCode: resp.StatusCode, Latency: time.Since(start)},
			fmt.Errorf("failed to read response body: %w", err)
	}

	return FetchResult{
		StatusCode:   resp.StatusCode,
		Content:      body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Latency:      time.Since(start),
	}, nil
}

// Close releases idle connections in the client's pool. The client remains
// usable afterwards; new connections are established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
