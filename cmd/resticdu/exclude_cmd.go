package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resticdu/internal/duc"
)

var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Emit every marked path as a restic exclude-file, one per line, to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		marks, err := a.Cache.SortedMarks()
		if err != nil {
			return fmt.Errorf("listing marks: %w", err)
		}

		return duc.EmitSortedMarks(cmd.OutOrStdout(), marks, true)
	},
}
