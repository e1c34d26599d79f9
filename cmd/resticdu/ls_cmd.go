package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"resticdu/internal/duc"
)

var lsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List the aggregated children of a path, largest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		parent := duc.PathID(0)
		if len(args) == 1 {
			parent, err = a.Cache.ResolvePath(args[0])
			if err != nil {
				return fmt.Errorf("resolving %s: %w", args[0], err)
			}
		}

		entries, err := a.Cache.ListDirectory(parent)
		if err != nil {
			return fmt.Errorf("listing directory: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			mark := " "
			if e.Marked {
				mark = "*"
			}
			kind := "f"
			if e.IsDir {
				kind = "d"
			}
			fmt.Fprintf(out, "%s %s %10s  %s\n", mark, kind, humanize.IBytes(uint64(e.MaxSize)), e.Name)
		}
		return nil
	},
}
