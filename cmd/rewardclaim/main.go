package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/planetdecred/dcrrewards"
	"github.com/planetdecred/dcrrewards/politeia"
	"github.com/spf13/cobra"
)

var (
	flagAppData    string
	flagServer     string
	flagConfigFile string
	flagLogLevel   = FlagLogLevel{level: "info"}
	flagJSON       bool
)

var rootCmd = &cobra.Command{
	Use:           "rewardclaim",
	Short:         "list closed proposal votes and claim their rewards",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func defaultAppData() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dcrrewards"
	}
	return filepath.Join(home, ".dcrrewards")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAppData, "appdata", defaultAppData(), "data directory")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "proposal server url")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "yaml config file")
	rootCmd.PersistentFlags().Var(&flagLogLevel, "loglevel", "log level {trace debug info warn error critical off}")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print json output")
}

// openRewards applies the config file and flags, in that order, and opens
// the data directory.
func openRewards(cmd *cobra.Command) (*dcrrewards.Rewards, error) {
	config := Config{AppData: flagAppData}
	if len(flagConfigFile) > 0 {
		loaded, err := LoadConfig(flagConfigFile)
		if err != nil {
			return nil, err
		}
		config = config.Merge(loaded)
	}
	if cmd.Flags().Changed("appdata") {
		config.AppData = flagAppData
	}
	if cmd.Flags().Changed("server") {
		config.Server = flagServer
	}
	if cmd.Flags().Changed("loglevel") {
		config.LogLevel = flagLogLevel.level
	}

	var client politeia.RemoteProposalClient
	if len(config.Server) > 0 {
		client = politeia.New(config.Server)
	}

	r, err := dcrrewards.New(config.AppData, client)
	if err != nil {
		return nil, err
	}

	if err := config.Apply(r); err != nil {
		r.Shutdown()
		return nil, err
	}

	return r, nil
}

func printError(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "error: %s\n\n", err.Error())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd, err)
		os.Exit(1)
	}
}
