package bridge

import (
	"github.com/ValentinKolb/kdb/cmd/util"
	"github.com/ValentinKolb/kdb/lib/common"
	"github.com/spf13/cobra"
)

var (
	conf common.Config

	// BridgeCommands represents the foreign bridge command group
	BridgeCommands = &cobra.Command{
		Use:               "bridge",
		Short:             "Inspect and exercise the bridge between Go and C memory",
		PersistentPreRunE: setupBridge,
	}
)

func init() {
	d := common.DefaultConfig()
	BridgeCommands.PersistentFlags().Int(common.KeyMinKeySetAlloc, d.MinKeySetAlloc, util.WrapString("Smallest capacity of a key set array"))

	BridgeCommands.AddCommand(layoutCmd)
	BridgeCommands.AddCommand(selftestCmd)
	BridgeCommands.AddCommand(perfTestCmd)
}

// setupBridge reads the configuration shared by all bridge commands
func setupBridge(cmd *cobra.Command, _ []string) error {
	var err error
	conf, err = util.Setup(cmd)
	return err
}
