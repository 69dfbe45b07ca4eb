// Package audit implements the audit command that runs one audit
// inline, without the queue or the database.
package audit

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/rankwell/siteaudit/cmd/common"
	"github.com/rankwell/siteaudit/internal/crawl"
	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/job"
	"github.com/rankwell/siteaudit/internal/pagespeed"
	"github.com/rankwell/siteaudit/internal/progress"
	"github.com/rankwell/siteaudit/internal/rules"
)

// Command returns the audit command for use in the root command.
func Command(cfgFile *string) *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Run a one-off audit against a URL",
		Long: `Crawls the given URL, evaluates the rule catalog, and prints the
category scores and issues. Results are not persisted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps(*cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			target, err := url.Parse(args[0])
			if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
				return fmt.Errorf("target must be an absolute http or https URL")
			}

			if maxPages > 0 {
				deps.Config.Crawler.MaxPages = maxPages
			}

			return run(cmd.Context(), deps, target.String())
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0,
		"Override the crawler max_pages setting (0 means use the configured value)")

	return cmd
}

func run(ctx context.Context, deps *cmdcommon.Deps, target string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := deps.Config
	log := deps.Logger

	catalog := rules.Default()
	store := newMemoryStore()

	runner := job.NewRunner(
		job.Config{
			JobTimeout: cfg.Audit.JobTimeout,
			MaxPages:   cfg.Crawler.MaxPages,
		},
		crawl.New(cfg.Crawler, log),
		pagespeed.NewClient(cfg.PageSpeed, nil, log),
		catalog,
		rules.NewHarness(catalog, cfg.Audit.RuleConcurrency, log),
		store,
		progress.NewNop(),
		nil,
		log,
	)

	audit := &domain.Audit{
		ID:        uuid.New().String(),
		ProjectID: "cli",
		URL:       target,
		Status:    domain.AuditStatusQueued,
		StartedAt: time.Now().UTC(),
	}

	if err := runner.Run(ctx, audit); err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	renderResult(audit, store.Issues())
	return nil
}

// renderResult prints the category scores and issues.
func renderResult(audit *domain.Audit, issues []domain.Issue) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Category", "Score"})
	scores := audit.Scores.ByCategory()
	for _, cat := range domain.Categories {
		t.AppendRow(table.Row{cat.String(), fmt.Sprintf("%d/100", scores[cat])})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d/100", *audit.TotalScore)})
	t.Render()

	if len(issues) == 0 {
		fmt.Fprintln(os.Stdout, "no issues found")
		return
	}

	it := table.NewWriter()
	it.SetOutputMirror(os.Stdout)
	it.SetStyle(table.StyleLight)

	it.AppendHeader(table.Row{"Severity", "Rule", "Page", "Message"})
	for _, issue := range issues {
		it.AppendRow(table.Row{issue.Severity, issue.RuleID, issue.PageURL, issue.Message})
	}
	it.Render()
}

// memoryStore keeps one audit's output in memory for inline runs.
type memoryStore struct {
	mu     sync.Mutex
	pages  []*domain.PageSnapshot
	issues []domain.Issue
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) MarkRunning(ctx context.Context, auditID string, at time.Time) error {
	return nil
}

func (s *memoryStore) SavePages(ctx context.Context, pages []*domain.PageSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = pages
	return nil
}

func (s *memoryStore) SaveIssues(ctx context.Context, issues []domain.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = issues
	return nil
}

func (s *memoryStore) Complete(ctx context.Context, audit *domain.Audit) error {
	return nil
}

func (s *memoryStore) Fail(ctx context.Context, auditID, message string, at time.Time) error {
	return nil
}

// Issues returns the recorded issues.
func (s *memoryStore) Issues() []domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issues
}
