package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list votes on closed proposals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRewards(cmd)
		if err != nil {
			return err
		}
		defer r.Shutdown()

		if err := r.Load(); err != nil {
			return err
		}

		if flagJSON {
			s, err := r.SnapshotJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}

		snapshot := r.Snapshot()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROPOSAL\tOPTION\tVOTED\tCLAIM")
		for _, entry := range snapshot.Entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Vote.ProposalID, entry.Vote.ChosenOption,
				entry.Vote.VotedAt().UTC().Format("2006-01-02 15:04"), entry.ClaimState)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		for _, id := range snapshot.Unresolved {
			fmt.Fprintf(cmd.OutOrStdout(), "status unknown: %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
