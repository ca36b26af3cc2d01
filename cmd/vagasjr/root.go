package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vagasjr/vagasjr/internal/collector"
	"github.com/vagasjr/vagasjr/internal/config"
	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
	"github.com/vagasjr/vagasjr/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vagasjr",
	Short: "Aggregator for junior developer jobs in Brazil",
	Long:  "vagasjr collects junior and internship developer postings from GitHub issue boards, LinkedIn, Gupy, Vagas.com.br and Programathor into one searchable catalog.",
	// Default to `serve` so invoking the binary directly runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: VAGASJR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(cfgPath))
}

func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", "path", cfg.Database.Path)
	return st, nil
}

// buildCollectors wires one collector per enabled source, all sharing a
// single rate limiter keyed by source name.
func buildCollectors(cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) []model.Collector {
	limiter := ratelimit.NewSourceLimiter(2*time.Second, cfg.Sources.Delays())

	var collectors []model.Collector
	if cfg.Sources.GitHub.Enabled {
		collectors = append(collectors, collector.NewGitHub(st, limiter, cfg.Sources.GitHub.Delay, cfg.GitHub.Token, logger))
	}
	if cfg.Sources.LinkedIn.Enabled {
		collectors = append(collectors, collector.NewLinkedIn(st, limiter, cfg.Sources.LinkedIn.Delay, logger))
	}
	if cfg.Sources.Gupy.Enabled {
		collectors = append(collectors, collector.NewGupy(st, limiter, cfg.Sources.Gupy.Delay, logger))
	}
	if cfg.Sources.Vagas.Enabled {
		collectors = append(collectors, collector.NewVagas(st, limiter, cfg.Sources.Vagas.Delay, logger))
	}
	if cfg.Sources.Programathor.Enabled {
		collectors = append(collectors, collector.NewProgramathor(st, limiter, cfg.Sources.Programathor.Delay, logger))
	}

	for _, c := range collectors {
		logger.Info("registered collector", "collector", c.Name())
	}
	return collectors
}
