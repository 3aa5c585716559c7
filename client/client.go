// Package client provides source clients for fetching feed entries: the
// query-API client used by zenfeed-style backends and an RSS adapter for
// plain syndication sources.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leopold7/zenfeed-go/model"
)

// SourceClient fetches feed entries from one configured source. The
// aggregator treats every source through this boundary; transport failures
// must be classifiable by model.ClassifyFetchError.
type SourceClient interface {
	FetchFeeds(ctx context.Context, req model.FeedRequest) ([]model.Feed, error)
}

// RateLimitedTransport wraps an http.RoundTripper with rate limiting.
type RateLimitedTransport struct {
	transport   http.RoundTripper
	rateLimiter *rate.Limiter
}

// RoundTrip implements the http.RoundTripper interface with rate limiting.
func (r *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := r.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return r.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting and a
// bounded per-request timeout.
func NewRateLimitedHTTPClient(requestsPerSecond float64, burstCapacity int, timeout time.Duration) *http.Client {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burstCapacity)
	return &http.Client{
		Transport: &RateLimitedTransport{
			transport:   http.DefaultTransport,
			rateLimiter: limiter,
		},
		Timeout: timeout,
	}
}

// QueryClient talks to one query-API server. Requests go to the server's API
// URL; the backend URL is passed along so a proxying API can route them.
type QueryClient struct {
	apiURL     string
	backendURL string
	httpClient *http.Client
}

// NewQueryClient creates a client for one server. A nil httpClient gets a
// rate-limited default.
func NewQueryClient(apiURL, backendURL string, httpClient *http.Client) (*QueryClient, error) {
	if err := model.ValidateServerURL(apiURL); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(2.0, 5, 30*time.Second)
	}
	return &QueryClient{
		apiURL:     strings.TrimRight(apiURL, "/"),
		backendURL: backendURL,
		httpClient: httpClient,
	}, nil
}

// FetchFeeds posts the query window to the server and decodes the response.
func (c *QueryClient) FetchFeeds(ctx context.Context, req model.FeedRequest) ([]model.Feed, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	endpoint := c.apiURL + "/query"
	if c.backendURL != "" {
		endpoint += "?backend=" + url.QueryEscape(c.backendURL)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewFeedError(model.ErrorTypeHTTP, fmt.Sprintf("unexpected status: %s", resp.Status)).
			WithURL(endpoint).
			WithOperation("fetch_feeds").
			WithHTTPStatus(resp.StatusCode)
	}

	var decoded model.FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	return decoded.Feeds, nil
}
