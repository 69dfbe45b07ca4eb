// Package pagespeed fetches Lighthouse-style performance metrics for a
// URL and shields the audit pipeline from provider failures. Any provider
// error collapses to a well-defined empty result; Analyze never fails for
// ordinary provider flakiness.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rankwell/siteaudit/internal/config"
	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/metrics"
)

// Strategy selects the provider's rendering strategy.
type Strategy string

const (
	// StrategyMobile renders with a simulated mobile device.
	StrategyMobile Strategy = "mobile"

	// StrategyDesktop renders with a desktop viewport.
	StrategyDesktop Strategy = "desktop"
)

// defaultFetchTimeout is the hard per-fetch timeout mandated for the
// provider integration.
const defaultFetchTimeout = 60 * time.Second

// requestedCategories are the Lighthouse categories asked of the provider.
var requestedCategories = []string{"performance", "accessibility", "best-practices", "seo"}

// Client talks to the performance provider's HTTP API.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewClient creates a provider client from configuration. A nil metrics
// value disables fetch-outcome instrumentation.
func NewClient(cfg config.PageSpeedConfig, m *metrics.Metrics, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		metrics:  m,
		logger:   log,
	}
}

// HasCredential reports whether an API key is configured. Behavior is
// identical either way; without a key the provider applies stricter
// rate limits.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// Analyze fetches mobile and desktop metrics for the URL concurrently
// and joins both before returning. The metric pair is all-or-nothing:
// if either strategy fails (non-2xx, timeout, rate limit, malformed
// body) the whole call returns the empty result. The call itself never
// returns an error for provider flakiness.
func (c *Client) Analyze(ctx context.Context, pageURL string) *domain.PerformanceResult {
	var (
		wg      sync.WaitGroup
		mobile  *lighthouseResult
		desktop *lighthouseResult
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		mobile = c.fetch(ctx, pageURL, StrategyMobile)
	}()
	go func() {
		defer wg.Done()
		desktop = c.fetch(ctx, pageURL, StrategyDesktop)
	}()
	wg.Wait()

	if mobile == nil || desktop == nil {
		c.logger.Warn("pagespeed analyze incomplete, dropping partial data",
			logger.String("url", pageURL),
			logger.Bool("mobile_ok", mobile != nil),
			logger.Bool("desktop_ok", desktop != nil),
		)
		return &domain.PerformanceResult{}
	}

	return &domain.PerformanceResult{
		Mobile:        extractMetrics(mobile),
		Desktop:       extractMetrics(desktop),
		Opportunities: extractOpportunities(mobile),
		Diagnostics:   extractDiagnostics(mobile),
	}
}

// fetch performs one provider request. Returns nil on any failure; the
// caller treats nil as "no data".
func (c *Client) fetch(ctx context.Context, pageURL string, strategy Strategy) *lighthouseResult {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, c.requestURL(pageURL, strategy), nil)
	if err != nil {
		c.logger.Warn("pagespeed request build failed",
			logger.String("url", pageURL),
			logger.Error(err),
		)
		c.observeFetch("error")
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("pagespeed fetch failed",
			logger.String("url", pageURL),
			logger.String("strategy", string(strategy)),
			logger.Error(err),
		)
		c.observeFetch("error")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Rate limits are logged distinctly for operational visibility
		// but handled like any other failure.
		c.logger.Warn("pagespeed rate limited",
			logger.String("url", pageURL),
			logger.String("strategy", string(strategy)),
			logger.Bool("has_credential", c.HasCredential()),
		)
		c.observeFetch("rate_limited")
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("pagespeed returned non-2xx",
			logger.String("url", pageURL),
			logger.String("strategy", string(strategy)),
			logger.Int("status", resp.StatusCode),
		)
		c.observeFetch("error")
		return nil
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("pagespeed response decode failed",
			logger.String("url", pageURL),
			logger.Error(err),
		)
		c.observeFetch("error")
		return nil
	}

	c.observeFetch("ok")
	return &body.LighthouseResult
}

// observeFetch records one fetch outcome when instrumentation is wired.
func (c *Client) observeFetch(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveProviderFetch(outcome)
	}
}

// requestURL builds the provider request for one strategy.
func (c *Client) requestURL(pageURL string, strategy Strategy) string {
	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", string(strategy))
	for _, cat := range requestedCategories {
		q.Add("category", cat)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return fmt.Sprintf("%s?%s", c.endpoint, q.Encode())
}
