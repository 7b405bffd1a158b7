// Package wikimedia adapts the Wikimedia REST and MediaWiki action APIs.
package wikimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"WikiTrends/internal/config"
	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

const defaultUserAgent = "WikiTrends/1.0"

// Client implements the page views, page detail and search ports over HTTP.
type Client struct {
	http         *http.Client
	userAgent    string
	limiter      *rate.Limiter
	pageviewsURL string
	summaryURL   string
	searchURL    string
	search       config.SearchConfig
	logger       *slog.Logger
}

var (
	_ ports.PageViewsSource  = (*Client)(nil)
	_ ports.PageDetailSource = (*Client)(nil)
	_ ports.SearchSource     = (*Client)(nil)
)

// NewClient builds a client from configuration; httpClient may be nil.
func NewClient(httpClient *http.Client, httpCfg config.HTTPConfig, endpoints config.WikipediaConfig, search config.SearchConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		timeout := httpCfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if httpCfg.RequestsPerSecond > 0 {
		limit = rate.Limit(httpCfg.RequestsPerSecond)
	}
	burst := int(httpCfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	ua := strings.TrimSpace(httpCfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		http:         httpClient,
		userAgent:    ua,
		limiter:      rate.NewLimiter(limit, burst),
		pageviewsURL: endpoints.PageviewsURL,
		summaryURL:   endpoints.SummaryURL,
		searchURL:    endpoints.SearchURL,
		search:       search,
		logger:       logger,
	}
}

// expand fills {lang}, {date} and {title} placeholders; values are path-escaped.
func expand(template string, pairs ...string) string {
	args := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		args = append(args, "{"+pairs[i]+"}", url.PathEscape(pairs[i+1]))
	}
	return strings.NewReplacer(args...).Replace(template)
}

// expandRaw is expand without escaping, for values that are already URL-safe paths.
func expandRaw(template string, pairs ...string) string {
	args := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		args = append(args, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(args...).Replace(template)
}

// getJSON performs a rate-limited GET and decodes a 2xx body into v.
// Non-2xx answers become *domain.HTTPStatusError.
func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &domain.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: target}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}
