package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the cache against the repository's current snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "added %d, deleted %d, failed %d\n",
			len(result.Added), len(result.Deleted), len(result.Failed))
		for hash, ferr := range result.Failed {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", hash, ferr)
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d snapshot(s) failed to ingest", len(result.Failed))
		}
		return nil
	},
}
