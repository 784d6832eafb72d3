package testing

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/shopspring/decimal"
)

// RunSortedDictBenchmarks runs all benchmarks for a dictionary implementation.
// incFactory is optional, the increment benchmark is skipped if it is nil.
func RunSortedDictBenchmarks(b *testing.B, name string, factory DictFactory, incFactory func(t testing.TB, name string) db.IncrementingDict[string, decimal.Decimal]) {

	b.Run("Add", func(b *testing.B) {
		benchmarkAdd(b, factory(b, newName()))
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory(b, newName()))
	})

	b.Run("ContainsKey(not)", func(b *testing.B) {
		benchmarkContainsKeyNot(b, factory(b, newName()))
	})

	b.Run("Range100", func(b *testing.B) {
		benchmarkRange(b, factory(b, newName()), 100)
	})

	b.Run("Count", func(b *testing.B) {
		benchmarkCount(b, factory(b, newName()))
	})

	b.Run("Increment", func(b *testing.B) {
		if incFactory == nil {
			b.Skip()
		}
		benchmarkIncrement(b, incFactory(b, newName()))
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prefill adds numKeys entries named bench-key-%08d
func prefill(b *testing.B, dict db.SortedDict[string, string], numKeys int) {
	ctx := context.Background()
	for i := 0; i < numKeys; i++ {
		if err := dict.Add(ctx, fmt.Sprintf("bench-key-%08d", i), fmt.Sprintf("bench-value-%d", i)); err != nil {
			b.Fatalf("prefill failed: %v", err)
		}
	}
}

// Benchmark for Add operation
func benchmarkAdd(b *testing.B, dict db.SortedDict[string, string]) {
	ctx := context.Background()

	b.Cleanup(func() {
		dict.Drop(ctx)
	})

	requireFeature(b, dict, db.FeatureAdd)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dict.Add(ctx, fmt.Sprintf("bench-key-%08d", i), "bench-value"); err != nil {
			b.Fatalf("Add failed: %v", err)
		}
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, dict db.SortedDict[string, string]) {
	ctx := context.Background()

	b.Cleanup(func() {
		dict.Drop(ctx)
	})

	requireFeature(b, dict, db.FeatureAdd|db.FeatureGet)

	numKeys := 1000
	prefill(b, dict, numKeys)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dict.Get(ctx, fmt.Sprintf("bench-key-%08d", i%numKeys)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

// Benchmark for ContainsKey operation on absent keys
func benchmarkContainsKeyNot(b *testing.B, dict db.SortedDict[string, string]) {
	ctx := context.Background()

	b.Cleanup(func() {
		dict.Drop(ctx)
	})

	requireFeature(b, dict, db.FeatureAdd|db.FeatureGet)

	prefill(b, dict, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dict.ContainsKey(ctx, fmt.Sprintf("missing-key-%d", i)); err != nil {
			b.Fatalf("ContainsKey failed: %v", err)
		}
	}
}

// Benchmark for Range scans of width entries at random positions
func benchmarkRange(b *testing.B, dict db.SortedDict[string, string], width int) {
	ctx := context.Background()

	b.Cleanup(func() {
		dict.Drop(ctx)
	})

	requireFeature(b, dict, db.FeatureAdd|db.FeatureRange)

	numKeys := 5000
	prefill(b, dict, numKeys)
	r := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := r.Intn(numKeys - width)
		it := dict.Range(ctx, fmt.Sprintf("bench-key-%08d", start), fmt.Sprintf("bench-key-%08d", start+width-1))
		n := 0
		for it.Next() {
			n++
		}
		if err := it.Err(); err != nil {
			b.Fatalf("Range failed: %v", err)
		}
		it.Close()
		if n != width {
			b.Fatalf("Range returned %d entries, expected %d", n, width)
		}
	}
}

// Benchmark for Count operation
func benchmarkCount(b *testing.B, dict db.SortedDict[string, string]) {
	ctx := context.Background()

	b.Cleanup(func() {
		dict.Drop(ctx)
	})

	requireFeature(b, dict, db.FeatureAdd|db.FeatureCount)

	prefill(b, dict, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dict.Count(ctx); err != nil {
			b.Fatalf("Count failed: %v", err)
		}
	}
}

// Benchmark for Increment operation on a small set of hot keys
func benchmarkIncrement(b *testing.B, dict db.IncrementingDict[string, decimal.Decimal]) {
	ctx := context.Background()

	b.Cleanup(func() {
		dict.Drop(ctx)
	})

	requireFeature(b, dict, db.FeatureIncrement)

	numKeys := 16
	for i := 0; i < numKeys; i++ {
		if err := dict.Add(ctx, fmt.Sprintf("counter-%02d", i), decimal.Zero); err != nil {
			b.Fatalf("Add failed: %v", err)
		}
	}
	one := decimal.NewFromInt(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dict.Increment(ctx, fmt.Sprintf("counter-%02d", i%numKeys), one); err != nil {
			b.Fatalf("Increment failed: %v", err)
		}
	}
}
