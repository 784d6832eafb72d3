package dict

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/braidwood/cmd/util"
	statutil "github.com/ValentinKolb/braidwood/lib/db/util"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the configured backend",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfDictPrefix  = "__perf"
	perfValueSize   = 64
	perfNumThreads  = 4
	perfKeySpread   = 1000
	perfRangeWidth  = 100
	perfSkip        = make([]string, 0)
	perfSkipAllowed = []string{"add", "get", "has", "has-not", "remove", "range", "increment", "mixed"}
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,range)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("Number of goroutines per CPU to use for the benchmark"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 64, util.WrapString("Size of the values of the plain dictionary benchmarks (in bytes)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How many different keys to use for the tests"))
	key = "range-width"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many entries a single range scan reads"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfValueSize = viper.GetInt("value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfRangeWidth = viper.GetInt("range-width")
	perfSkip = perfSkip[:0]
	for _, s := range strings.Split(viper.GetString("skip"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			perfSkip = append(perfSkip, s)
		}
	}

	if perfKeySpread < 1 || perfNumThreads < 1 || perfValueSize < 0 {
		return fmt.Errorf("keys and threads must be positive, value-size must not be negative")
	}
	if perfRangeWidth < 1 || perfRangeWidth > perfKeySpread {
		return fmt.Errorf("range-width must be between 1 and keys (%d)", perfKeySpread)
	}
	for _, s := range perfSkip {
		if !contains(perfSkipAllowed, s) {
			return fmt.Errorf("unknown benchmark %q, must be one of %s", s, strings.Join(perfSkipAllowed, ","))
		}
	}
	return nil
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	name    string
	result  testing.BenchmarkResult
	latency *statutil.LatencyHistogram
	balance statutil.WorkerBalance
	errors  int64
}

// perfCase describes one benchmark. setup prepares the dictionaries and returns the
// operation every worker runs in a loop, op receives the worker id and its counter.
type perfCase struct {
	name  string
	setup func(ctx context.Context, b *testing.B) func(worker, i int) error
}

func runPerf(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, "Performance testing tool for braidwood dictionaries")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Configuration:")
	fmt.Fprintln(out, session.Config.String())
	fmt.Fprintf(out, "Threads: %d per CPU, Keys: %d, Value Size: %dB\n", perfNumThreads, perfKeySpread, perfValueSize)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "starting tests...")

	results := make([]perfResult, 0, len(perfSkipAllowed))
	for _, pc := range perfCases(session.Repo) {
		res := runPerfCase(ctx, pc)
		results = append(results, res)
		printResult(out, res)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Fprintln(out, "Export complete")
	}
	return nil
}

// runPerfCase runs a benchmark in parallel and records the latency of every operation
func runPerfCase(ctx context.Context, pc perfCase) perfResult {
	res := perfResult{name: pc.name, latency: statutil.NewLatencyHistogram()}
	if shouldSkip(pc.name) {
		return res
	}

	var opsPerWorker []float64
	res.result = testing.Benchmark(func(b *testing.B) {
		// testing.Benchmark calls this function repeatedly with a growing b.N, only the last round is kept
		res.latency.Reset()
		atomic.StoreInt64(&res.errors, 0)
		var mu sync.Mutex
		opsPerWorker = opsPerWorker[:0]
		var workerIDs atomic.Int32

		op := pc.setup(ctx, b)
		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			worker := int(workerIDs.Add(1))
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := op(worker, counter); err != nil {
					if atomic.AddInt64(&res.errors, 1) == 1 {
						log.Warningf("(%s) - operation failed: %v", pc.name, err)
					}
				}
				res.latency.ObserveSince(start)
				counter++
			}
			mu.Lock()
			opsPerWorker = append(opsPerWorker, float64(counter))
			mu.Unlock()
		})
	})
	res.balance = statutil.NewWorkerBalance(opsPerWorker)
	return res
}

// perfCases returns all benchmarks, every benchmark works on its own dictionaries
// which are dropped when it is done
func perfCases(repo *repository.Repository) []perfCase {
	value := strings.Repeat("v", perfValueSize)
	one := decimal.NewFromInt(1)

	plain := func(ctx context.Context, b *testing.B, suffix string, prefill bool) dictionary {
		name := perfDictPrefix + "-" + suffix
		d, err := openDictionary(ctx, repo, name, false)
		if err != nil {
			b.Fatalf("(%s) - failed to open dictionary: %v", suffix, err)
		}
		if err := d.Clear(ctx); err != nil {
			b.Fatalf("(%s) - failed to clear dictionary: %v", suffix, err)
		}
		b.Cleanup(func() {
			if err := repo.Drop(ctx, name); err != nil {
				log.Warningf("(%s) - error dropping dictionary: %v", suffix, err)
			}
		})
		if prefill {
			for i := 0; i < perfKeySpread; i++ {
				if err := d.Add(ctx, perfKey(i), value); err != nil {
					b.Fatalf("(%s) - error adding key: %v", suffix, err)
				}
			}
		}
		return d
	}

	return []perfCase{
		{name: "add", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "add", false)
			return func(worker, i int) error {
				return d.Add(ctx, fmt.Sprintf("%s-%d-%d", perfDictPrefix, worker, i), value)
			}
		}},
		{name: "get", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "get", true)
			return func(_, i int) error {
				_, _, err := d.TryGet(ctx, perfKey(i))
				return err
			}
		}},
		{name: "has", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "has", true)
			return func(_, i int) error {
				_, err := d.ContainsKey(ctx, perfKey(i))
				return err
			}
		}},
		{name: "has-not", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "has-not", true)
			return func(_, i int) error {
				_, err := d.ContainsKey(ctx, fmt.Sprintf("%s-missing-%d", perfDictPrefix, i%perfKeySpread))
				return err
			}
		}},
		{name: "remove", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "remove", true)
			return func(_, i int) error {
				_, err := d.Remove(ctx, perfKey(i))
				return err
			}
		}},
		{name: "range", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "range", true)
			return func(_, i int) error {
				start := i % (perfKeySpread - perfRangeWidth + 1)
				n := 0
				err := d.Scan(ctx, true, perfKey(start), perfKey(start+perfRangeWidth-1), func(string, string) error {
					n++
					return nil
				})
				if err == nil && n != perfRangeWidth {
					err = fmt.Errorf("range returned %d entries, expected %d", n, perfRangeWidth)
				}
				return err
			}
		}},
		{name: "increment", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			name := perfDictPrefix + "-increment"
			d, err := repository.IncrementingDict[string, decimal.Decimal](ctx, repo, name)
			if err != nil {
				b.Fatalf("(increment) - failed to open dictionary: %v", err)
			}
			if err := d.Clear(ctx); err != nil {
				b.Fatalf("(increment) - failed to clear dictionary: %v", err)
			}
			b.Cleanup(func() {
				if err := repo.Drop(ctx, name); err != nil {
					log.Warningf("(increment) - error dropping dictionary: %v", err)
				}
			})
			for i := 0; i < perfKeySpread; i++ {
				if err := d.Add(ctx, perfKey(i), decimal.Zero); err != nil {
					b.Fatalf("(increment) - error adding key: %v", err)
				}
			}
			return func(_, i int) error {
				return d.Increment(ctx, perfKey(i), one)
			}
		}},
		{name: "mixed", setup: func(ctx context.Context, b *testing.B) func(int, int) error {
			d := plain(ctx, b, "mixed", false)
			return func(worker, i int) error {
				key := fmt.Sprintf("%s-%d-%d", perfDictPrefix, worker, i/4)
				var err error
				switch i % 4 {
				case 0: // add
					err = d.Add(ctx, key, value)
				case 1: // get
					_, _, err = d.TryGet(ctx, key)
				case 2: // has
					_, err = d.ContainsKey(ctx, key)
				case 3: // remove
					_, err = d.Remove(ctx, key)
				}
				return err
			}
		}},
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func shouldSkip(test string) bool {
	return contains(perfSkip, test)
}

// perfKey returns the i-th prefilled key (with wraparound), keys sort in index order
func perfKey(i int) string {
	return fmt.Sprintf("%s-key-%08d", perfDictPrefix, i%perfKeySpread)
}

// opsPerSec converts the result of a benchmark, 0 if it was skipped
func opsPerSec(result testing.BenchmarkResult) (nsPerOp, ops float64) {
	if result.NsPerOp() == 0 {
		return 0, 0
	}
	nsPerOp = math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	return nsPerOp, 1.0 / (nsPerOp / 1e9)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, res perfResult) {
	nsPerOp, ops := opsPerSec(res.result)
	if nsPerOp == 0 {
		fmt.Fprintf(out, "%-12sskipped\n", res.name)
		return
	}

	fmt.Fprintf(out, "%-12s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s max=%s\tbalance=%.2f",
		res.name, nsPerOp, time.Duration(nsPerOp), ops,
		res.latency.Percentile(50), res.latency.Percentile(99), res.latency.Max(),
		res.balance.Quality)
	if res.errors > 0 {
		fmt.Fprintf(out, "\terrors=%d", res.errors)
	}
	fmt.Fprintln(out)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"MeanLatency", "P50Latency", "P99Latency", "MaxLatency", "Errors", "WorkerBalance",
		"Backend", "Formatter", "Threads", "ValueSize", "Keys", "RangeWidth",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, res := range results {
		nsPerOp, ops := opsPerSec(res.result)
		row := []string{
			res.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", ops),
			strconv.FormatBool(nsPerOp == 0),
			res.latency.Mean().String(),
			res.latency.Percentile(50).String(),
			res.latency.Percentile(99).String(),
			res.latency.Max().String(),
			strconv.FormatInt(res.errors, 10),
			fmt.Sprintf("%.3f", res.balance.Quality),
			string(session.Config.Backend),
			session.Config.Formatter,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfValueSize),
			strconv.Itoa(perfKeySpread),
			strconv.Itoa(perfRangeWidth),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", res.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
