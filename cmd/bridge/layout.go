package bridge

import (
	"fmt"

	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Prints the memory layout of the C structs Key and KeySet",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printStruct("struct _Key", ffi.SizeofKey, ffi.KeyFields())
		fmt.Println()
		printStruct("struct _KeySet", ffi.SizeofKeySet, ffi.KeySetFields())
	},
}

// printStruct prints one struct as an offset table, padding included
func printStruct(title string, size uintptr, fields []ffi.Field) {
	fmt.Printf("%s (%d bytes)\n", title, size)
	fmt.Printf("  %-12s %6s %6s\n", "field", "offset", "size")
	end := uintptr(0)
	for _, f := range fields {
		if f.Offset > end {
			fmt.Printf("  %-12s %6d %6d\n", "(padding)", end, f.Offset-end)
		}
		fmt.Printf("  %-12s %6d %6d\n", f.Name, f.Offset, f.Size)
		end = f.Offset + f.Size
	}
	if size > end {
		fmt.Printf("  %-12s %6d %6d\n", "(padding)", end, size-end)
	}
}
