package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/pipeline"
	"github.com/ritzau/ic-analyzer/pkg/pubsub"
	"github.com/ritzau/ic-analyzer/pkg/source"
	"github.com/ritzau/ic-analyzer/pkg/watcher"
	"github.com/ritzau/ic-analyzer/pkg/web"
	"github.com/spf13/cobra"
)

const (
	quietPeriod = 500 * time.Millisecond
	maxWait     = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scores, status streams and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	defaults := config.Defaults()
	cmd.Flags().Int("port", defaults["port"].(int), "HTTP port")
	cmd.Flags().Bool("watch", false, "Re-run the pipeline when input files change")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	publisher := pubsub.NewPipelinePublisher()
	runner := pipeline.NewRunner(cfg, publisher)
	server := web.NewServer(runner, publisher)

	if cfg.Watch {
		graphFiles := source.Paths(cfg)
		if len(graphFiles) == 0 {
			return errors.New("--watch needs a file based graph source")
		}
		fw, err := watcher.NewFileWatcher(graphFiles, cfg.Labels)
		if err != nil {
			return err
		}
		if err := fw.Start(ctx); err != nil {
			return err
		}

		debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
		debouncer.Start(ctx)

		go func() {
			for event := range debouncer.Output() {
				reason := watcher.Reason(event)
				logging.Info("Input changed, re-running pipeline", "reason", reason)
				if _, err := runner.Run(ctx, reason); err != nil {
					logging.Error("Pipeline run failed", "reason", reason, "error", err)
				}
			}
		}()
	}

	// The server answers with the run status while the first run is in progress
	go func() {
		if _, err := runner.Run(ctx, "initial run"); err != nil {
			logging.Error("Initial pipeline run failed", "error", err)
		}
	}()

	return server.Start(ctx, cfg.Port)
}
