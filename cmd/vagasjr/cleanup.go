package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete postings older than the retention window",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "retention window in days (default: retention.max_age_days from config)")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	days := cleanupDays
	if days <= 0 {
		days = cfg.Retention.MaxAgeDays
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	sweep, err := st.CleanupOldJobs(context.Background(), days)
	if err != nil {
		return err
	}

	fmt.Printf("deleted %d posting(s) older than %d days\n", sweep.Deleted, days)
	for _, name := range sweep.Jobs {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}
