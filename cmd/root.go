package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kdb/cmd/bridge"
	"github.com/ValentinKolb/kdb/cmd/name"
	"github.com/ValentinKolb/kdb/cmd/util"
	"github.com/ValentinKolb/kdb/lib/common"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kdb",
		Short: "hierarchical configuration key core",
		Long: fmt.Sprintf(`kdb (v%s)

Developer tooling for the kdb key model and its C library: parse and
compare key names, inspect the C struct layout and exercise the bridge
between Go and C memory.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kdb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kdb v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(name.NameCommands)
	RootCmd.AddCommand(bridge.BridgeCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	d := common.DefaultConfig()
	RootCmd.PersistentFlags().String(common.KeyLogLevel, d.LogLevel, util.WrapString("Log level (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
