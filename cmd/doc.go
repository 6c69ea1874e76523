// Package cmd implements the kdb developer command line. It has no part in
// the C library and exists to inspect the key model and the foreign bridge.
//
// The package is organized into several subpackages:
//
//   - name: parse, compare and relate key names with the managed model
//   - bridge: dump the C layout, run the bridge self test and benchmarks
//   - util: shared flag, configuration and setup helpers (internal use)
//
// Every flag can also be set through a KDB_* environment variable or an .env file.
// See kdb -help for a list of all commands.
package cmd
