// Package crawl produces page snapshots for an audit by crawling the
// target site up to a configured page cap. The audit job consumes the
// snapshots through the job.Crawler interface and treats them as opaque
// read-only input.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	colly "github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/rankwell/siteaudit/internal/config"
	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/logger"
)

// Crawl defaults.
const (
	defaultMaxDepth   = 3
	defaultMaxPages   = 50
	defaultParallel   = 4
	probeFetchTimeout = 10 * time.Second
)

// startTimeCtxKey is the colly request context key holding the fetch start.
const startTimeCtxKey = "fetch_started_at"

// ErrTargetUnreachable is returned when the target's root page cannot be
// fetched at all. It is fatal to the audit job.
var ErrTargetUnreachable = errors.New("target unreachable")

// Crawler fetches a site's pages and extracts per-page facts.
type Crawler struct {
	cfg    config.CrawlerConfig
	http   *http.Client
	logger logger.Logger
}

// New creates a crawler from configuration.
func New(cfg config.CrawlerConfig, log logger.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallel
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Crawler{
		cfg:    cfg,
		http:   &http.Client{Timeout: probeFetchTimeout},
		logger: log,
	}
}

// Crawl fetches up to the configured page cap starting from target,
// staying on the target's host, and appends probe snapshots for
// robots.txt and sitemap.xml. onPage, when non-nil, is called once per
// captured page for progress reporting.
func (c *Crawler) Crawl(
	ctx context.Context,
	auditID, target string,
	onPage func(fetched int),
) ([]*domain.PageSnapshot, error) {
	root, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	if root.Host == "" {
		return nil, fmt.Errorf("target url %q has no host", target)
	}

	var (
		mu    sync.Mutex
		pages []*domain.PageSnapshot
	)

	collector := c.newCollector(root.Host)

	collector.OnRequest(func(r *colly.Request) {
		mu.Lock()
		full := len(pages) >= c.cfg.MaxPages
		mu.Unlock()

		if full || ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Ctx.Put(startTimeCtxKey, time.Now().Format(time.RFC3339Nano))
	})

	collector.OnResponse(func(r *colly.Response) {
		snapshot := c.snapshotResponse(auditID, root.Host, r)

		mu.Lock()
		if len(pages) >= c.cfg.MaxPages {
			mu.Unlock()
			return
		}
		pages = append(pages, snapshot)
		fetched := len(pages)
		mu.Unlock()

		if onPage != nil {
			onPage(fetched)
		}

		for _, link := range snapshot.Facts.InternalLinks {
			// Visit errors here are expected: already-visited URLs,
			// depth and domain filters.
			_ = collector.Visit(link)
		}
	})

	collector.OnError(func(r *colly.Response, visitErr error) {
		c.logger.Debug("page fetch failed",
			logger.String("url", r.Request.URL.String()),
			logger.Error(visitErr),
		)
	})

	if err := collector.Visit(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetUnreachable, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages fetched from %s", ErrTargetUnreachable, target)
	}

	pages = append(pages, c.probe(ctx, auditID, root, "/robots.txt"))
	pages = append(pages, c.probe(ctx, auditID, root, "/sitemap.xml"))

	return pages, nil
}

// newCollector configures the colly collector for one crawl.
func (c *Crawler) newCollector(host string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.AllowedDomains(host),
		colly.MaxDepth(defaultMaxDepth),
		colly.Async(true),
	}
	if c.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.cfg.UserAgent))
	}

	collector := colly.NewCollector(opts...)
	_ = collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Parallelism,
		Delay:       c.cfg.Delay,
	})
	return collector
}

// snapshotResponse converts a colly response into a page snapshot with
// extracted facts.
func (c *Crawler) snapshotResponse(auditID, host string, r *colly.Response) *domain.PageSnapshot {
	loadTime := time.Duration(0)
	if raw := r.Ctx.Get(startTimeCtxKey); raw != "" {
		if started, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			loadTime = time.Since(started)
		}
	}

	contentType := ""
	if r.Headers != nil {
		contentType = r.Headers.Get("Content-Type")
	}

	snapshot := &domain.PageSnapshot{
		ID:          uuid.NewString(),
		AuditID:     auditID,
		URL:         r.Request.URL.String(),
		StatusCode:  r.StatusCode,
		ContentType: contentType,
		LoadTimeMs:  loadTime.Milliseconds(),
		ByteSize:    len(r.Body),
		HTML:        string(r.Body),
		FetchedAt:   time.Now(),
	}
	if r.Headers != nil {
		snapshot.Headers = http.Header(*r.Headers)
	}

	if snapshot.IsHTML() {
		facts, err := ExtractFacts(snapshot.HTML, snapshot.URL, host)
		if err != nil {
			c.logger.Warn("fact extraction failed",
				logger.String("url", snapshot.URL),
				logger.Error(err),
			)
		} else {
			snapshot.Facts = facts
		}
	}

	return snapshot
}

// probe fetches a root-path resource such as robots.txt and records its
// status as a snapshot, so catalog rules can check its presence without
// doing I/O themselves.
func (c *Crawler) probe(ctx context.Context, auditID string, root *url.URL, path string) *domain.PageSnapshot {
	probeURL := fmt.Sprintf("%s://%s%s", root.Scheme, root.Host, path)

	snapshot := &domain.PageSnapshot{
		ID:        uuid.NewString(),
		AuditID:   auditID,
		URL:       probeURL,
		FetchedAt: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return snapshot
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("probe fetch failed",
			logger.String("url", probeURL),
			logger.Error(err),
		)
		return snapshot
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	snapshot.StatusCode = resp.StatusCode
	snapshot.ContentType = resp.Header.Get("Content-Type")
	snapshot.LoadTimeMs = time.Since(started).Milliseconds()
	snapshot.ByteSize = len(body)
	snapshot.Headers = resp.Header

	return snapshot
}
