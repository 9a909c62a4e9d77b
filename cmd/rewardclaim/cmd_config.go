package main

import (
	"fmt"
	"strconv"

	"github.com/planetdecred/dcrrewards"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "read and write stored settings",
	Args:  cobra.NoArgs,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "print a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRewards(cmd)
		if err != nil {
			return err
		}
		defer r.Shutdown()

		var value interface{}
		if err := r.ReadUserConfigValue(args[0], &value); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "store a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRewards(cmd)
		if err != nil {
			return err
		}
		defer r.Shutdown()

		switch args[0] {
		case dcrrewards.LogLevelConfigKey:
			return r.SetLogLevel(args[1])
		case dcrrewards.NTPCheckIntervalConfigKey, dcrrewards.MaxConcurrentResolutionsConfigKey:
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			if args[0] == dcrrewards.MaxConcurrentResolutionsConfigKey {
				return r.SetMaxConcurrentResolutions(n)
			}
			return r.SaveUserConfigValue(args[0], n)
		default:
			return r.SaveUserConfigValue(args[0], args[1])
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
