package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details PATH",
	Short: "Show first/last-seen snapshots and the witness snapshot for a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Cache.ResolvePath(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}

		details, err := a.Cache.PathDetails(id)
		if err != nil {
			return fmt.Errorf("fetching details: %w", err)
		}

		out := cmd.OutOrStdout()
		if details.FirstSnapshot != nil {
			fmt.Fprintf(out, "first seen: %s (%s)\n", details.FirstSnapshot.Time.Format("2006-01-02 15:04:05"), details.FirstSnapshot.Hash)
		}
		if details.LastSnapshot != nil {
			fmt.Fprintf(out, "last seen:  %s (%s)\n", details.LastSnapshot.Time.Format("2006-01-02 15:04:05"), details.LastSnapshot.Hash)
		}
		fmt.Fprintf(out, "max size:   %s\n", humanize.IBytes(uint64(details.WitnessSize)))
		if details.Witness != nil {
			fmt.Fprintf(out, "witness:    %s (%s)\n", details.Witness.Hash, details.Witness.Time.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}
