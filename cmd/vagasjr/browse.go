package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vagasjr/vagasjr/internal/browse"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the stored catalog in the terminal",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
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

	return browse.Run(st)
}
