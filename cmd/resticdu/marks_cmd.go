package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var markCmd = &cobra.Command{
	Use:   "mark PATH",
	Short: "Add an absolute path to the mark set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Cache.Mark(args[0])
	},
}

var unmarkCmd = &cobra.Command{
	Use:   "unmark PATH",
	Short: "Remove an absolute path from the mark set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Cache.Unmark(args[0])
	},
}

var clearMarksCmd = &cobra.Command{
	Use:   "clear-marks",
	Short: "Empty the mark set",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Cache.ClearMarks()
	},
}

var marksCmd = &cobra.Command{
	Use:   "marks",
	Short: "List the current mark set in lexicographic order",
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
		out := cmd.OutOrStdout()
		for _, m := range marks {
			fmt.Fprintln(out, m)
		}
		return nil
	},
}
