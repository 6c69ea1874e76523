package name

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kdb/lib/kdb"
	"github.com/spf13/cobra"
)

var (
	parseCmd = &cobra.Command{
		Use:   "parse [name]",
		Short: "Parses a key name and prints its canonical form and parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kn, err := kdb.ParseKeyName(args[0])
			if err != nil {
				return err
			}
			base, _ := kn.BaseName()
			fmt.Printf("name=%s\n", kn)
			fmt.Printf("namespace=%s (%d)\n", kn.Namespace(), int(kn.Namespace()))
			fmt.Printf("depth=%d\n", kn.Depth())
			fmt.Printf("base=%q\n", base)
			for i, p := range kn.Parts() {
				fmt.Printf("part[%d]=%q\n", i, p)
			}
			if unescaped, _ := cmd.Flags().GetBool("unescaped"); unescaped {
				fmt.Printf("unescaped=% x\n", kn.Unescaped())
			}
			return nil
		},
	}
	cmpCmd = &cobra.Command{
		Use:   "cmp [name] [name]",
		Short: "Compares two key names by path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parsePair(args)
			if err != nil {
				return err
			}
			fmt.Printf("cmp=%d\n", kdb.Compare(a, b))
			return nil
		},
	}
	belowCmd = &cobra.Command{
		Use:   "below [parent] [name]",
		Short: "Reports how the second name relates to the first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, check, err := parsePair(args)
			if err != nil {
				return err
			}
			fmt.Printf("below=%t, belowOrSame=%t, directlyBelow=%t\n",
				kdb.IsBelow(parent, check),
				kdb.IsBelowOrSame(parent, check),
				kdb.IsDirectlyBelow(parent, check))
			return nil
		},
	}
	sortCmd = &cobra.Command{
		Use:   "sort [name]...",
		Short: "Collects names into a key set and prints them in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks := kdb.NewKeySet()
			var dropped []string
			for _, arg := range args {
				k, err := kdb.NewKey(arg)
				if err != nil {
					return err
				}
				if !ks.Append(k) {
					dropped = append(dropped, arg)
				}
			}
			for _, k := range ks.Sorted() {
				fmt.Println(k)
			}
			if len(dropped) > 0 {
				fmt.Printf("duplicates ignored: %s\n", strings.Join(dropped, ", "))
			}
			return nil
		},
	}
)

// parsePair turns two arguments into keys
func parsePair(args []string) (*kdb.Key, *kdb.Key, error) {
	a, err := kdb.NewKey(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := kdb.NewKey(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
