package name

import (
	"github.com/ValentinKolb/kdb/cmd/util"
	"github.com/spf13/cobra"
)

var (
	// NameCommands represents the key name command group
	NameCommands = &cobra.Command{
		Use:   "name",
		Short: "Parse and compare key names",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := util.Setup(cmd)
			return err
		},
	}
)

func init() {
	NameCommands.AddCommand(parseCmd)
	NameCommands.AddCommand(cmpCmd)
	NameCommands.AddCommand(belowCmd)
	NameCommands.AddCommand(sortCmd)

	parseCmd.Flags().Bool("unescaped", false, util.WrapString("Also print the unescaped binary form as hex"))
}
