// Package serve implements the serve command for the audit HTTP API.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	cmdcommon "github.com/rankwell/siteaudit/cmd/common"
	"github.com/rankwell/siteaudit/internal/api"
	"github.com/rankwell/siteaudit/internal/database"
	"github.com/rankwell/siteaudit/internal/logger"
	"github.com/rankwell/siteaudit/internal/queue"
)

// Command returns the serve command for use in the root command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP API server",
		Long:  `Runs the HTTP API that accepts audit requests, enqueues them for workers, and serves audit results.`,
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

	db, err := database.NewPostgresConnection(deps.Config.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	streams, err := queue.NewStreamsClient(deps.Config.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer streams.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := database.NewStore(db)
	producer := queue.NewProducer(streams)
	handler := api.NewAuditsHandler(store.Audits, store.Issues, producer, deps.Logger)
	router := api.SetupRouter(deps.Logger, handler, registry)
	server := api.NewServer(deps.Config.Server.Address, router, deps.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		deps.Logger.Info("shutdown signal received")
		if err := server.Stop(context.Background()); err != nil {
			deps.Logger.Error("server shutdown failed", logger.Error(err))
			return err
		}
		return nil
	}
}
