package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/equitas/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached analysis results",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	manager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer manager.Close()

	removed, err := manager.AnalysisCache().Purge(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)
	return nil
}
