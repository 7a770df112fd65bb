package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of an upstream body is read into a
// cacheable response.
const maxResponseBytes = 8 << 20

// HTTPFetcher fetches operations from a JSON HTTP API. Each supported
// operation maps to a path template; request parameters become query
// parameters. Operations without a mapping report ErrUnsupported.
type HTTPFetcher struct {
	baseURL   string
	userAgent string
	paths     map[Operation]string
	client    *http.Client
	logger    *zap.Logger
}

// HTTPFetcherOption customizes an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent sent upstream.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// NewHTTPFetcher builds a fetcher for the given API base URL and
// operation path table.
func NewHTTPFetcher(baseURL string, paths map[Operation]string, timeout time.Duration, logger *zap.Logger, opts ...HTTPFetcherOption) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &HTTPFetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "manga-api-parsers/1.0",
		paths:     paths,
		logger:    logger,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				MaxIdleConnsPerHost:   4,
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, op Operation, params Params) ([]byte, error) {
	path, ok := f.paths[op]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupported)
	}

	query := url.Values{}
	for name, value := range params {
		query.Set(name, value)
	}
	target := f.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if challengeStatus(resp) {
		return nil, fmt.Errorf("upstream returned %d: %w", resp.StatusCode, ErrChallenge)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream body: %w", err)
	}
	return data, nil
}

// challengeStatus recognizes anti-bot interstitials by their status
// and challenge headers.
func challengeStatus(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusServiceUnavailable {
		return false
	}
	server := strings.ToLower(resp.Header.Get("Server"))
	return strings.Contains(server, "cloudflare") || resp.Header.Get("CF-Chl-Bypass") != ""
}
