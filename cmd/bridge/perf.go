package bridge

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"
	"unsafe"

	"github.com/ValentinKolb/kdb/cmd/util"
	"github.com/ValentinKolb/kdb/lib/abi"
	"github.com/ValentinKolb/kdb/lib/ffi"
	"github.com/ValentinKolb/kdb/lib/kdb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Benchmarks the C entry points on the Go heap",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix = "user:/perf"
	perfKeySpread = 1000
	perfSkip      = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. append,lookup)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How many keys the key sets hold"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	perfKeySpread = viper.GetInt("keys")
	if perfKeySpread < 1 {
		return fmt.Errorf("keys must be positive, got %d", perfKeySpread)
	}
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

// perfEnv is one API with prepared C names, rebuilt for every benchmark
type perfEnv struct {
	api     *abi.API
	tracker *ffi.TrackingAllocator
	names   []unsafe.Pointer
}

func newPerfEnv(prefix string) *perfEnv {
	api, tracker := util.NewTrackedAPI(conf)
	e := &perfEnv{api: api, tracker: tracker, names: make([]unsafe.Pointer, perfKeySpread)}
	for i := range e.names {
		e.names[i] = ffi.AllocCString(tracker, fmt.Sprintf("%s/%s/%d", perfKeyPrefix, prefix, i))
	}
	return e
}

// fill returns a key set holding one key per prepared name
func (e *perfEnv) fill() *ffi.ForeignKeySet {
	ks := e.api.KsNew(len(e.names), nil)
	for _, n := range e.names {
		e.api.KsAppendKey(ks, e.api.KeyNew(n, nil))
	}
	return ks
}

// close frees the names and reports leaks
func (e *perfEnv) close(test string) {
	for _, n := range e.names {
		e.tracker.Free(n)
	}
	e.api.Close()
	if err := e.tracker.Check(); err != nil {
		log.Errorf("(%s) - %v", test, err)
	}
}

var perfTests = []struct {
	name  string
	bench func(b *testing.B, e *perfEnv)
}{
	{"key-new", func(b *testing.B, e *perfEnv) {
		for i := 0; i < b.N; i++ {
			e.api.KeyDel(e.api.KeyNew(e.names[i%len(e.names)], nil))
		}
	}},
	{"append", func(b *testing.B, e *perfEnv) {
		ks := e.api.KsNew(0, nil)
		defer e.api.KsDel(ks)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if i > 0 && i%len(e.names) == 0 {
				b.StopTimer()
				e.api.KsClear(ks)
				b.StartTimer()
			}
			e.api.KsAppendKey(ks, e.api.KeyNew(e.names[i%len(e.names)], nil))
		}
	}},
	{"lookup", func(b *testing.B, e *perfEnv) {
		ks := e.fill()
		defer e.api.KsDel(ks)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if e.api.KsLookupByName(ks, e.names[i%len(e.names)], 0) == nil {
				b.Fatalf("key %d not found", i%len(e.names))
			}
		}
	}},
	{"dup", func(b *testing.B, e *perfEnv) {
		ks := e.fill()
		defer e.api.KsDel(ks)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			e.api.KsDel(e.api.KsDup(ks))
		}
	}},
	{"convert", func(b *testing.B, e *perfEnv) {
		managed := kdb.NewKeySet()
		for i := 0; i < len(e.names); i++ {
			managed.Append(kdb.MustNewKey(fmt.Sprintf("%s/convert/%d", perfKeyPrefix, i), kdb.WithString("v")))
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			e.api.KsDel(e.api.Bridge().ToForeignSet(managed))
		}
	}},
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Benchmarks for the C entry points")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(conf.String())
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, test := range perfTests {
		if shouldSkip(test.name) {
			results[test.name] = testing.BenchmarkResult{}
			printResult(test.name, testing.BenchmarkResult{})
			continue
		}
		result := testing.Benchmark(func(b *testing.B) {
			e := newPerfEnv(test.name)
			b.Cleanup(func() { e.close(test.name) })
			b.ReportAllocs()
			b.ResetTimer()
			test.bench(b, e)
		})
		results[test.name] = result
		printResult(test.name, result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.N == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\t%d B/op\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, result.AllocedBytesPerOp())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "BytesPerOp", "Skipped",
		"Keys Count", "MinKeySetAlloc",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range perfTests {
		result := results[test.name]
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.N > 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatInt(result.AllocedBytesPerOp(), 10),
			skipped,
			strconv.Itoa(perfKeySpread),
			strconv.Itoa(conf.MinKeySetAlloc),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test.name, err)
		}
	}
	return nil
}
