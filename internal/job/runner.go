// Package job orchestrates one audit run: crawl, analyze, score,
// publish. It owns the Queued -> Running -> {Completed | Failed} state
// machine and reports stage progress to external consumers.
package job

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rankwell/siteaudit/internal/crawl"
	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/metrics"
	"github.com/rankwell/siteaudit/internal/progress"
	"github.com/rankwell/siteaudit/internal/rules"
	"github.com/rankwell/siteaudit/internal/scoring"
)

// Progress milestones per stage. Crawling fills the range up to
// crawlDoneProgress as pages arrive.
const (
	crawlStartProgress = 5
	crawlDoneProgress  = 40
	analyzeProgress    = 45
	scoreProgress      = 75
	doneProgress       = 100
)

// defaultJobTimeout caps one audit run when the config leaves it unset,
// so a stalled crawl cannot hold a worker slot indefinitely.
const defaultJobTimeout = 10 * time.Minute

// Crawler supplies page snapshots for a target URL. The production
// implementation is crawl.Crawler; the job treats snapshots as opaque
// read-only input.
type Crawler interface {
	Crawl(ctx context.Context, auditID, target string, onPage func(fetched int)) ([]*domain.PageSnapshot, error)
}

// Analyzer fetches performance metrics for a URL. Never fails for
// provider flakiness; "no data" comes back as an empty result.
type Analyzer interface {
	Analyze(ctx context.Context, url string) *domain.PerformanceResult
}

// Store persists the state transitions and outputs of one audit.
type Store interface {
	MarkRunning(ctx context.Context, auditID string, at time.Time) error
	SavePages(ctx context.Context, pages []*domain.PageSnapshot) error
	SaveIssues(ctx context.Context, issues []domain.Issue) error
	Complete(ctx context.Context, audit *domain.Audit) error
	Fail(ctx context.Context, auditID, message string, at time.Time) error
}

// Config holds runner settings.
type Config struct {
	// JobTimeout bounds one audit run end to end.
	JobTimeout time.Duration

	// MaxPages is the crawl page cap, used to scale crawl progress.
	MaxPages int
}

// Runner executes audit jobs.
type Runner struct {
	cfg       Config
	crawler   Crawler
	analyzer  Analyzer
	harness   *rules.Harness
	catalog   *rules.Catalog
	store     Store
	publisher progress.Publisher
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewRunner assembles an audit job runner.
func NewRunner(
	cfg Config,
	crawler Crawler,
	analyzer Analyzer,
	catalog *rules.Catalog,
	harness *rules.Harness,
	store Store,
	publisher progress.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
) *Runner {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if publisher == nil {
		publisher = progress.NewNop()
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Runner{
		cfg:       cfg,
		crawler:   crawler,
		analyzer:  analyzer,
		harness:   harness,
		catalog:   catalog,
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

// Run executes one audit end to end. Rule and provider failures are
// absorbed inside their stages; only infrastructural failures (crawler
// unreachable, database unavailable) transition the audit to Failed.
func (r *Runner) Run(ctx context.Context, audit *domain.Audit) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
	defer cancel()

	log := r.logger.With(
		logger.String("audit_id", audit.ID),
		logger.String("url", audit.URL),
	)
	started := time.Now()

	if err := r.store.MarkRunning(ctx, audit.ID, started); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	audit.Status = domain.AuditStatusRunning

	report, err := r.execute(ctx, audit, log)
	if err != nil {
		return r.fail(ctx, audit, err, log)
	}

	if r.metrics != nil {
		r.metrics.ObserveAudit(true, time.Since(started))
	}

	log.Info("audit completed",
		logger.Int("total_score", *audit.TotalScore),
		logger.Int("pages", report.pagesCrawled),
		logger.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// runReport carries stage outputs between execute and its caller.
type runReport struct {
	pagesCrawled int
}

// execute drives the crawling, analyzing, and scoring stages.
func (r *Runner) execute(ctx context.Context, audit *domain.Audit, log logger.Logger) (*runReport, error) {
	// Crawl stage.
	r.publishUpdate(ctx, audit, progress.StageCrawling, crawlStartProgress, "Crawling site")

	pages, err := r.crawler.Crawl(ctx, audit.ID, audit.URL, func(fetched int) {
		pct := crawlStartProgress +
			(crawlDoneProgress-crawlStartProgress)*fetched/r.cfg.MaxPages
		r.publishUpdate(ctx, audit, progress.StageCrawling, pct,
			fmt.Sprintf("Crawled %d page(s)", fetched))
	})
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	log.Info("crawl finished", logger.Int("pages", len(pages)))

	// Analyze stage: one provider call shared by every rule that needs
	// performance context.
	r.publishUpdate(ctx, audit, progress.StageAnalyzing, analyzeProgress, "Fetching performance metrics")
	perf := r.analyzer.Analyze(ctx, audit.URL)
	if !perf.HasData() {
		log.Warn("no performance data for audit")
	}

	// Score stage.
	r.publishUpdate(ctx, audit, progress.StageScoring, scoreProgress, "Evaluating rules")

	results := r.harness.Run(ctx, pages, hostOf(audit.URL), perf)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := scoring.TotalScore(results)
	categories := scoring.CategoryScores(results, r.catalog.CategoryOf, r.catalog.WeightTotals())
	issues := collectIssues(audit.ID, results)

	// Completion.
	now := time.Now()
	audit.TotalScore = &total
	audit.Scores = domain.ScoresByCategory(categories)
	audit.CompletedAt = &now
	if audit.Metadata == nil {
		audit.Metadata = domain.JSONBMap{}
	}
	audit.Metadata["pages_crawled"] = len(pages)
	audit.Metadata["catalog_version"] = rules.CatalogVersion
	audit.Metadata["performance_data"] = perf.HasData()

	if err := r.store.SavePages(ctx, pages); err != nil {
		return nil, fmt.Errorf("save pages: %w", err)
	}
	if err := r.store.SaveIssues(ctx, issues); err != nil {
		return nil, fmt.Errorf("save issues: %w", err)
	}
	if err := r.store.Complete(ctx, audit); err != nil {
		return nil, fmt.Errorf("complete audit: %w", err)
	}
	audit.Status = domain.AuditStatusCompleted

	r.publishUpdate(ctx, audit, progress.StageCompleted, doneProgress, "Audit completed")
	r.publishCompletion(ctx, audit, "")

	return &runReport{pagesCrawled: len(pages)}, nil
}

// fail transitions the audit to Failed with a short, non-leaking message.
func (r *Runner) fail(ctx context.Context, audit *domain.Audit, cause error, log logger.Logger) error {
	log.Error("audit failed", logger.Error(cause))

	if r.metrics != nil {
		r.metrics.ObserveAudit(false, 0)
	}

	msg := publicErrorMessage(cause)

	// The terminal write must go through even when the job context is
	// cancelled or timed out.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := r.store.Fail(failCtx, audit.ID, msg, time.Now()); err != nil {
		log.Error("failed to persist audit failure", logger.Error(err))
	}
	audit.Status = domain.AuditStatusFailed

	r.publishCompletion(failCtx, audit, msg)
	return cause
}

// publishUpdate emits a stage transition. Publishing is best-effort.
func (r *Runner) publishUpdate(ctx context.Context, audit *domain.Audit, stage progress.Stage, pct int, msg string) {
	err := r.publisher.PublishUpdate(ctx, progress.Update{
		AuditID:  audit.ID,
		Status:   audit.Status,
		Stage:    stage,
		Progress: pct,
		Message:  msg,
	})
	if err != nil {
		r.logger.Debug("progress publish failed", logger.Error(err))
	}
}

// publishCompletion emits the terminal event with final scores.
func (r *Runner) publishCompletion(ctx context.Context, audit *domain.Audit, errMsg string) {
	err := r.publisher.PublishCompletion(ctx, progress.Completion{
		AuditID:    audit.ID,
		Status:     audit.Status,
		TotalScore: audit.TotalScore,
		Scores:     audit.Scores,
		Error:      errMsg,
	})
	if err != nil {
		r.logger.Debug("completion publish failed", logger.Error(err))
	}
}

// collectIssues flattens rule results into persisted issues with a
// deterministic order: sorted by rule id regardless of which goroutine
// finished first.
func collectIssues(auditID string, results map[string]domain.CheckResult) []domain.Issue {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now()
	var issues []domain.Issue
	for _, id := range ids {
		for _, issue := range results[id].Issues {
			issue.ID = uuid.NewString()
			issue.AuditID = auditID
			issue.CreatedAt = now
			issues = append(issues, issue)
		}
	}
	return issues
}

// publicErrorMessage maps an internal failure to the short message shown
// on the audit record. Raw errors stay in the logs only.
func publicErrorMessage(err error) string {
	switch {
	case errors.Is(err, crawl.ErrTargetUnreachable):
		return "target site could not be reached"
	case errors.Is(err, context.DeadlineExceeded):
		return "audit timed out"
	case errors.Is(err, context.Canceled):
		return "audit was cancelled"
	default:
		return "internal error while running the audit"
	}
}

// hostOf extracts the host of the audit target for same-origin checks.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
