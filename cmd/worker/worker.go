// Package worker implements the worker command that consumes queued
// audits and runs them.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	cmdcommon "github.com/rankwell/siteaudit/cmd/common"
	"github.com/rankwell/siteaudit/internal/crawl"
	"github.com/rankwell/siteaudit/internal/database"
	"github.com/rankwell/siteaudit/internal/job"
	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/metrics"
	"github.com/rankwell/siteaudit/internal/pagespeed"
	"github.com/rankwell/siteaudit/internal/progress"
	"github.com/rankwell/siteaudit/internal/queue"
	"github.com/rankwell/siteaudit/internal/rules"
	workerpkg "github.com/rankwell/siteaudit/internal/worker"
)

// Command returns the worker command for use in the root command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run an audit worker",
		Long:  `Runs a worker that consumes queued audits, crawls the target site, evaluates the rule catalog, and persists scores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps(*cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			return run(cmd.Context(), deps)
		},
	}
}

func run(ctx context.Context, deps *cmdcommon.Deps) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := deps.Config
	log := deps.Logger

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	streams, err := queue.NewStreamsClient(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer streams.Close()

	consumer, err := queue.NewConsumer(streams, queue.ConsumerConfig{
		ConsumerID: consumerID(),
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	catalog := rules.Default()
	harness := rules.NewHarness(catalog, cfg.Audit.RuleConcurrency, log)
	m := metrics.New(prometheus.DefaultRegisterer)

	runner := job.NewRunner(
		job.Config{
			JobTimeout: cfg.Audit.JobTimeout,
			MaxPages:   cfg.Crawler.MaxPages,
		},
		crawl.New(cfg.Crawler, log),
		pagespeed.NewClient(cfg.PageSpeed, m, log),
		catalog,
		harness,
		database.NewStore(db),
		progress.NewRedisPublisher(streams.Client(), cfg.Redis.Prefix),
		m,
		log,
	)

	handler := func(ctx context.Context, consumed *queue.ConsumedJob) error {
		return runner.Run(ctx, consumed.Message.Audit)
	}

	service, err := workerpkg.NewService(workerpkg.Config{
		PoolSize:     cfg.Worker.PoolSize,
		DrainTimeout: cfg.Worker.DrainTimeout,
		JobTimeout:   cfg.Audit.JobTimeout,
	}, consumer, handler, log)
	if err != nil {
		return fmt.Errorf("create worker service: %w", err)
	}

	log.Info("worker starting",
		logger.Int("pool_size", cfg.Worker.PoolSize),
		logger.String("stream", streams.StreamName()),
	)

	return service.Run(ctx)
}

// consumerID builds a stable-enough consumer name for this process.
func consumerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
