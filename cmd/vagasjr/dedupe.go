package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate postings, keeping the earliest of each pair",
	RunE:  runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
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

	sweep, err := st.RemoveDuplicates(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("removed %d duplicate posting(s)\n", sweep.Removed)
	for _, name := range sweep.Duplicates {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}
