package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vagasjr/vagasjr/internal/pipeline"
	"github.com/vagasjr/vagasjr/internal/schedule"
	"github.com/vagasjr/vagasjr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and the periodic sync",
	Long:  "Start the HTTP API and, when enabled, the cron schedule that syncs all sources and sweeps stale postings. Blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	collectors := buildCollectors(cfg, st, logger)
	if len(collectors) == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}

	orch := pipeline.New(logger, collectors...)

	if cfg.Schedule.Enabled {
		runner, err := schedule.New(cfg.Schedule.Spec, orch, st, cfg.Retention.MaxAgeDays, logger)
		if err != nil {
			logger.Error("failed to build schedule", "error", err)
			os.Exit(1)
		}
		runner.Start()
		defer runner.Stop()
	} else {
		logger.Info("schedule disabled, sync only via POST /api/sync")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server.Addr, st, orch, cfg.Retention.MaxAgeDays, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
