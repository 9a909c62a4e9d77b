package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var claimCmd = &cobra.Command{
	Use:   "claim <proposal-id>",
	Short: "claim the reward of a closed proposal vote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRewards(cmd)
		if err != nil {
			return err
		}
		defer r.Shutdown()

		if err := r.Load(); err != nil {
			return err
		}

		result, err := r.ClaimReward(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(claimCmd)
}
