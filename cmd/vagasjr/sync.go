package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vagasjr/vagasjr/internal/pipeline"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and exit",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results := pipeline.New(logger, collectors...).SyncAll(ctx)

	var found, added int
	for _, r := range results {
		found += r.JobsFound
		added += r.JobsAdded
		fmt.Printf("%-16s found=%-4d added=%-4d errors=%d\n", r.Source, r.JobsFound, r.JobsAdded, len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  ! %s\n", e)
		}
	}
	fmt.Printf("total: found=%d added=%d\n", found, added)
	return nil
}
