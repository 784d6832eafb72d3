package testing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Factories
// --------------------------------------------------------------------------

// DictFactory creates a new, empty string dictionary with the given name.
// The factory is expected to fail the test itself if the dictionary can not be created.
type DictFactory func(t testing.TB, name string) db.SortedDict[string, string]

// OrderingFactories create dictionaries with non-text keys. Nil factories are skipped.
type OrderingFactories struct {
	Int64   func(t testing.TB, name string) db.SortedDict[int64, string]
	Float64 func(t testing.TB, name string) db.SortedDict[float64, string]
	UUID    func(t testing.TB, name string) db.SortedDict[uuid.UUID, string]
}

// IncrementingFactories create incrementing dictionaries. Nil factories are skipped.
type IncrementingFactories struct {
	Decimal func(t testing.TB, name string) db.IncrementingDict[string, decimal.Decimal]
	Int64   func(t testing.TB, name string) db.IncrementingDict[string, int64]
	Float64 func(t testing.TB, name string) db.IncrementingDict[string, float64]
	Int32   func(t testing.TB, name string) db.IncrementingDict[string, int32]
	Uint64  func(t testing.TB, name string) db.IncrementingDict[string, uint64]
}

// DictOpener opens a dictionary with the given name and only returns the error of the
// constructor. Implementations drop the dictionary if it was created.
type DictOpener func(name string) error

// dictCounter makes dictionary names unique within a test binary
var dictCounter atomic.Int64

// newName returns a fresh dictionary name
func newName() string {
	return fmt.Sprintf("dict_%d", dictCounter.Add(1))
}

// --------------------------------------------------------------------------
// Test Suites
// --------------------------------------------------------------------------

// RunSortedDictTests runs the conformance suite for a db.SortedDict implementation.
func RunSortedDictTests(t *testing.T, name string, factory DictFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add&Get", func(t *testing.T) {
			testAddGet(t, factory(t, newName()))
		})

		t.Run("AddDuplicate", func(t *testing.T) {
			testAddDuplicate(t, factory(t, newName()))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory(t, newName()))
		})

		t.Run("ThousandKeys", func(t *testing.T) {
			testThousandKeys(t, factory(t, newName()))
		})

		t.Run("GetAfterAdd", func(t *testing.T) {
			testGetAfterAdd(t, factory(t, newName()))
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory(t, newName()))
		})

		t.Run("RangeSeeded", func(t *testing.T) {
			testRangeSeeded(t, factory(t, newName()))
		})

		t.Run("RangeBounds", func(t *testing.T) {
			testRangeBounds(t, factory(t, newName()))
		})

		t.Run("IterationOrder", func(t *testing.T) {
			testIterationOrder(t, factory(t, newName()))
		})

		t.Run("IteratorEarlyClose", func(t *testing.T) {
			testIteratorEarlyClose(t, factory(t, newName()))
		})

		t.Run("IteratorManyPages", func(t *testing.T) {
			testIteratorManyPages(t, factory(t, newName()))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t, newName()))
		})
	})
}

// RunOrderingTests checks that non-text keys are ordered numerically (or by raw bytes for uuids).
func RunOrderingTests(t *testing.T, name string, factories OrderingFactories) {
	t.Run(name, func(t *testing.T) {
		t.Run("Int64", func(t *testing.T) {
			if factories.Int64 == nil {
				t.Skip()
			}
			testInt64Ordering(t, factories.Int64(t, newName()))
		})

		t.Run("Float64", func(t *testing.T) {
			if factories.Float64 == nil {
				t.Skip()
			}
			testFloat64Ordering(t, factories.Float64(t, newName()))
		})

		t.Run("UUID", func(t *testing.T) {
			if factories.UUID == nil {
				t.Skip()
			}
			testUUIDOrdering(t, factories.UUID(t, newName()))
		})
	})
}

// RunIncrementingDictTests runs the conformance suite for db.IncrementingDict implementations.
func RunIncrementingDictTests(t *testing.T, name string, factories IncrementingFactories) {
	t.Run(name, func(t *testing.T) {
		t.Run("IncrementDecimal", func(t *testing.T) {
			if factories.Decimal == nil {
				t.Skip()
			}
			testIncrementDecimal(t, factories.Decimal(t, newName()))
		})

		t.Run("IncrementAbsent", func(t *testing.T) {
			if factories.Decimal == nil {
				t.Skip()
			}
			testIncrementAbsent(t, factories.Decimal(t, newName()))
		})

		t.Run("IncrementMany", func(t *testing.T) {
			if factories.Decimal == nil {
				t.Skip()
			}
			testIncrementMany(t, factories.Decimal(t, newName()))
		})

		t.Run("IncrementInt64", func(t *testing.T) {
			if factories.Int64 == nil {
				t.Skip()
			}
			testIncrementInt64(t, factories.Int64(t, newName()))
		})

		t.Run("IncrementFloat64", func(t *testing.T) {
			if factories.Float64 == nil {
				t.Skip()
			}
			testIncrementFloat64(t, factories.Float64(t, newName()))
		})

		t.Run("IncrementInt32Boundary", func(t *testing.T) {
			if factories.Int32 == nil {
				t.Skip()
			}
			testIncrementInt32Boundary(t, factories.Int32(t, newName()))
		})

		t.Run("IncrementUint64Large", func(t *testing.T) {
			if factories.Uint64 == nil {
				t.Skip()
			}
			testIncrementUint64Large(t, factories.Uint64(t, newName()))
		})
	})
}

// RunNameTests checks the name validation of a dictionary constructor.
func RunNameTests(t *testing.T, name string, open DictOpener) {
	t.Run(name, func(t *testing.T) {
		t.Run("BlankName", func(t *testing.T) {
			for _, blank := range []string{"", " ", "\t\n  "} {
				if err := open(blank); !errors.Is(err, db.ErrInvalidArgument) {
					t.Errorf("Expected ErrInvalidArgument for %q, got %v", blank, err)
				}
			}
		})

		t.Run("ValidName", func(t *testing.T) {
			if err := open(newName()); err != nil {
				t.Errorf("Expected a valid name to be accepted, got %v", err)
			}
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// featureSupporter is implemented by every dictionary
type featureSupporter interface {
	SupportsFeature(feature db.Feature) bool
}

// Checks if the dictionary supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, dict featureSupporter, feature db.Feature) {
	if !dict.SupportsFeature(feature) {
		t.Skip()
	}
}

// mustAdd adds an entry and fails the test on error
func mustAdd[K comparable, V any](t testing.TB, dict db.SortedDict[K, V], key K, value V) {
	t.Helper()
	if err := dict.Add(context.Background(), key, value); err != nil {
		t.Fatalf("Add(%v) failed: %v", key, err)
	}
}

// mustCount returns the number of entries and fails the test on error
func mustCount[K comparable, V any](t testing.TB, dict db.SortedDict[K, V]) int {
	t.Helper()
	n, err := dict.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	return n
}

// mustKeys drains an iterator into a key slice and fails the test on error
func mustKeys[K comparable, V any](t testing.TB, it db.Iterator[K, V]) []K {
	t.Helper()
	keys, err := db.CollectKeys(it)
	if err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAddGet(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureGet)

	mustAdd(t, dict, "test-key", "test-value")

	value, err := dict.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "test-value" {
		t.Errorf("Expected value %s, got %s", "test-value", value)
	}

	value, ok, err := dict.TryGet(ctx, "test-key")
	if err != nil || !ok || value != "test-value" {
		t.Errorf("TryGet returned (%s, %t, %v), expected (test-value, true, nil)", value, ok, err)
	}

	_, ok, err = dict.TryGet(ctx, "nonexistent-key")
	if err != nil || ok {
		t.Errorf("TryGet of nonexistent key returned (%t, %v), expected (false, nil)", ok, err)
	}

	_, err = dict.Get(ctx, "nonexistent-key")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for nonexistent key, got %v", err)
	}

	found, err := dict.ContainsKey(ctx, "test-key")
	if err != nil || !found {
		t.Errorf("Expected ContainsKey to return true, got (%t, %v)", found, err)
	}

	found, err = dict.ContainsKey(ctx, "nonexistent-key")
	if err != nil || found {
		t.Errorf("Expected ContainsKey to return false, got (%t, %v)", found, err)
	}

	// empty strings are valid keys and values
	mustAdd(t, dict, "", "")
	value, err = dict.Get(ctx, "")
	if err != nil || value != "" {
		t.Errorf("Expected empty value for empty key, got (%q, %v)", value, err)
	}
}

func testAddDuplicate(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureGet)

	mustAdd(t, dict, "dup", "first")

	err := dict.Add(ctx, "dup", "second")
	if !errors.Is(err, db.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey when adding an existing key, got %v", err)
	}

	value, err := dict.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "first" {
		t.Errorf("Duplicate Add must not overwrite, expected first, got %s", value)
	}

	if n := mustCount(t, dict); n != 1 {
		t.Errorf("Expected count 1, got %d", n)
	}
}

func testRemove(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRemove)

	mustAdd(t, dict, "a", "1")
	mustAdd(t, dict, "b", "2")

	removed, err := dict.Remove(ctx, "a")
	if err != nil || !removed {
		t.Errorf("Expected Remove of existing key to return true, got (%t, %v)", removed, err)
	}

	removed, err = dict.Remove(ctx, "a")
	if err != nil || removed {
		t.Errorf("Expected second Remove to return false, got (%t, %v)", removed, err)
	}

	found, _ := dict.ContainsKey(ctx, "a")
	if found {
		t.Errorf("Removed key should not be found")
	}

	if n := mustCount(t, dict); n != 1 {
		t.Errorf("Expected count 1 after remove, got %d", n)
	}

	// a removed key can be added again
	mustAdd(t, dict, "a", "3")
	value, err := dict.Get(ctx, "a")
	if err != nil || value != "3" {
		t.Errorf("Expected re-added value 3, got (%s, %v)", value, err)
	}
}

func testThousandKeys(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())

	requireFeature(t, dict, db.FeatureAdd|db.FeatureCount)

	for i := 0; i < 1000; i++ {
		mustAdd(t, dict, "hola"+strconv.Itoa(i), "mundo"+strconv.Itoa(i))
	}

	if n := mustCount(t, dict); n != 1000 {
		t.Errorf("Expected count 1000, got %d", n)
	}
}

func testGetAfterAdd(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureGet)

	mustAdd(t, dict, "hola", "mundo")
	mustAdd(t, dict, "jairo", "velasco")

	if value, err := dict.Get(ctx, "hola"); err != nil || value != "mundo" {
		t.Errorf("Expected hola=mundo, got (%s, %v)", value, err)
	}
	if value, err := dict.Get(ctx, "jairo"); err != nil || value != "velasco" {
		t.Errorf("Expected jairo=velasco, got (%s, %v)", value, err)
	}
}

func testClear(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRemove|db.FeatureCount)

	mustAdd(t, dict, "hola", "mundo")
	mustAdd(t, dict, "jairo", "velasco")

	if err := dict.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if n := mustCount(t, dict); n != 0 {
		t.Errorf("Expected count 0 after clear, got %d", n)
	}

	for _, k := range []string{"hola", "jairo"} {
		if found, err := dict.ContainsKey(ctx, k); err != nil || found {
			t.Errorf("Key %s should not exist after clear, got (%t, %v)", k, found, err)
		}
	}

	// clearing an empty dictionary is fine
	if err := dict.Clear(ctx); err != nil {
		t.Errorf("Clear of empty dictionary failed: %v", err)
	}
}

func testRangeSeeded(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRange)

	r := rand.New(rand.NewSource(20))
	seen := make(map[string]bool)
	var reference []string
	for len(reference) < 100 {
		k := strconv.Itoa(r.Intn(1_000_000))
		if seen[k] {
			continue
		}
		seen[k] = true
		reference = append(reference, k)
		mustAdd(t, dict, k, "v"+k)
	}
	sort.Strings(reference)

	keys := mustKeys(t, dict.Range(ctx, reference[0], reference[len(reference)-1]))
	if len(keys) != len(reference) {
		t.Fatalf("Expected %d keys in range, got %d", len(reference), len(keys))
	}
	for i := range reference {
		if keys[i] != reference[i] {
			t.Errorf("Range key %d: expected %s, got %s", i, reference[i], keys[i])
		}
	}
}

func testRangeBounds(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRange)

	for _, k := range []string{"b", "d", "f", "h", "j"} {
		mustAdd(t, dict, k, "value-"+k)
	}

	cases := []struct {
		from, to string
		expected []string
	}{
		{"b", "j", []string{"b", "d", "f", "h", "j"}}, // inclusive on both ends
		{"d", "h", []string{"d", "f", "h"}},
		{"c", "g", []string{"d", "f"}}, // bounds not present
		{"a", "a", nil},
		{"k", "z", nil},
		{"f", "f", []string{"f"}},
		{"h", "d", nil}, // from > to
	}

	for _, c := range cases {
		entries, err := db.Collect(dict.Range(ctx, c.from, c.to))
		if err != nil {
			t.Fatalf("Range(%s, %s) failed: %v", c.from, c.to, err)
		}
		var keys []string
		for _, e := range entries {
			keys = append(keys, e.Key)
			if e.Value != "value-"+e.Key {
				t.Errorf("Range(%s, %s) returned wrong value %s for key %s", c.from, c.to, e.Value, e.Key)
			}
		}
		if !slices.Equal(keys, c.expected) {
			t.Errorf("Range(%s, %s): expected %v, got %v", c.from, c.to, c.expected, keys)
		}
	}
}

func testIterationOrder(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRange)

	input := []string{"m", "a", "z", "B", "ab", "aa", "0"}
	for _, k := range input {
		mustAdd(t, dict, k, "value-"+k)
	}
	expected := slices.Clone(input)
	slices.Sort(expected)

	keys := mustKeys(t, dict.Keys(ctx))
	if !slices.Equal(keys, expected) {
		t.Errorf("Keys: expected %v, got %v", expected, keys)
	}

	it := dict.Keys(ctx)
	for it.Next() {
		if it.Value() != "" {
			t.Errorf("Keys iterator should not load values, got %s", it.Value())
		}
	}
	it.Close()

	entries, err := db.Collect(dict.All(ctx))
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	for i, e := range entries {
		if e.Key != expected[i] || e.Value != "value-"+expected[i] {
			t.Errorf("All entry %d: expected %s, got %s=%s", i, expected[i], e.Key, e.Value)
		}
	}

	values := dict.Values(ctx)
	defer values.Close()
	i := 0
	for values.Next() {
		if values.Value() != "value-"+expected[i] {
			t.Errorf("Values entry %d: expected value-%s, got %s", i, expected[i], values.Value())
		}
		i++
	}
	if err := values.Err(); err != nil {
		t.Errorf("Values failed: %v", err)
	}
	if i != len(expected) {
		t.Errorf("Values: expected %d entries, got %d", len(expected), i)
	}
}

func testIteratorEarlyClose(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRange)

	for i := 0; i < 10; i++ {
		mustAdd(t, dict, fmt.Sprintf("key-%02d", i), "value")
	}

	it := dict.All(ctx)
	if !it.Next() {
		t.Fatalf("Expected at least one entry, err: %v", it.Err())
	}
	if it.Key() != "key-00" {
		t.Errorf("Expected first key key-00, got %s", it.Key())
	}
	if err := it.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if it.Next() {
		t.Errorf("Next after Close should return false")
	}
	if err := it.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}

	// the released cursor must not block writers or new readers
	mustAdd(t, dict, "key-10", "value")
	if n := mustCount(t, dict); n != 11 {
		t.Errorf("Expected count 11, got %d", n)
	}

	// an iterator that was never pulled can be closed
	if err := dict.Range(ctx, "key-00", "key-05").Close(); err != nil {
		t.Errorf("Close of unused iterator failed: %v", err)
	}
}

func testIteratorManyPages(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureAdd|db.FeatureRange)

	numKeys := 3*db.DefaultPageSize + 7
	for i := 0; i < numKeys; i++ {
		mustAdd(t, dict, fmt.Sprintf("page-%05d", i), strconv.Itoa(i))
	}

	keys := mustKeys(t, dict.Keys(ctx))
	if len(keys) != numKeys {
		t.Fatalf("Expected %d keys, got %d", numKeys, len(keys))
	}
	if !slices.IsSorted(keys) {
		t.Errorf("Keys are not sorted")
	}

	keys = mustKeys(t, dict.Range(ctx, "page-00100", "page-00299"))
	if len(keys) != 200 {
		t.Errorf("Expected 200 keys in range, got %d", len(keys))
	}
	if len(keys) > 0 && (keys[0] != "page-00100" || keys[len(keys)-1] != "page-00299") {
		t.Errorf("Unexpected range bounds %s..%s", keys[0], keys[len(keys)-1])
	}
}

func testInfo(t *testing.T, dict db.SortedDict[string, string]) {
	defer dict.Drop(context.Background())

	info := dict.Info()
	if info.Name != dict.Name() {
		t.Errorf("Expected info name %s, got %s", dict.Name(), info.Name)
	}
	if info.KeyKind != db.KeyText {
		t.Errorf("Expected key kind text, got %s", info.KeyKind)
	}
	if len(info.SupportedFeatures) == 0 {
		t.Errorf("Expected at least one supported feature")
	}
	for _, f := range info.SupportedFeatures {
		if !dict.SupportsFeature(f) {
			t.Errorf("Info lists feature %s but SupportsFeature returns false", f)
		}
	}
}

func testInt64Ordering(t *testing.T, dict db.SortedDict[int64, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	input := []int64{10, -3, 0, 7, -100, 2, 1 << 40, -(1 << 40)}
	for _, k := range input {
		mustAdd(t, dict, k, strconv.FormatInt(k, 10))
	}

	keys := mustKeys(t, dict.Keys(ctx))
	expected := slices.Clone(input)
	slices.Sort(expected)
	if !slices.Equal(keys, expected) {
		t.Errorf("Expected numeric order %v, got %v", expected, keys)
	}

	keys = mustKeys(t, dict.Range(ctx, -5, 7))
	if !slices.Equal(keys, []int64{-3, 0, 2, 7}) {
		t.Errorf("Range(-5, 7): expected [-3 0 2 7], got %v", keys)
	}

	value, err := dict.Get(ctx, -100)
	if err != nil || value != "-100" {
		t.Errorf("Expected -100, got (%s, %v)", value, err)
	}
}

func testFloat64Ordering(t *testing.T, dict db.SortedDict[float64, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	input := []float64{1.5, -0.25, 100, -42.75, 0, 3.125}
	for _, k := range input {
		mustAdd(t, dict, k, strconv.FormatFloat(k, 'g', -1, 64))
	}

	keys := mustKeys(t, dict.Keys(ctx))
	expected := slices.Clone(input)
	slices.Sort(expected)
	if !slices.Equal(keys, expected) {
		t.Errorf("Expected numeric order %v, got %v", expected, keys)
	}

	keys = mustKeys(t, dict.Range(ctx, -1, 2))
	if !slices.Equal(keys, []float64{-0.25, 0, 1.5}) {
		t.Errorf("Range(-1, 2): expected [-0.25 0 1.5], got %v", keys)
	}
}

func testUUIDOrdering(t *testing.T, dict db.SortedDict[uuid.UUID, string]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	r := rand.New(rand.NewSource(7))
	var input []uuid.UUID
	for i := 0; i < 50; i++ {
		var id uuid.UUID
		r.Read(id[:])
		input = append(input, id)
		mustAdd(t, dict, id, id.String())
	}

	// byte order and canonical string order agree
	expected := slices.Clone(input)
	sort.Slice(expected, func(i, j int) bool { return expected[i].String() < expected[j].String() })

	keys := mustKeys(t, dict.Keys(ctx))
	if !slices.Equal(keys, expected) {
		t.Errorf("UUID keys are not ordered canonically")
	}

	sub := mustKeys(t, dict.Range(ctx, expected[10], expected[19]))
	if !slices.Equal(sub, expected[10:20]) {
		t.Errorf("UUID range returned %d keys, expected 10", len(sub))
	}

	value, err := dict.Get(ctx, expected[3])
	if err != nil || value != expected[3].String() {
		t.Errorf("Expected %s, got (%s, %v)", expected[3], value, err)
	}
}

func testIncrementDecimal(t *testing.T, dict db.IncrementingDict[string, decimal.Decimal]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	if dict.NumericKind() != db.NumDecimal {
		t.Errorf("Expected numeric kind decimal, got %s", dict.NumericKind())
	}

	mustAdd[string, decimal.Decimal](t, dict, "001", decimal.NewFromInt(10000))

	if err := dict.Increment(ctx, "001", decimal.NewFromInt(-200)); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	value, err := dict.Get(ctx, "001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !value.Equal(decimal.NewFromInt(9800)) {
		t.Errorf("Expected 9800, got %s", value)
	}

	if err := dict.Increment(ctx, "001", decimal.RequireFromString("0.5")); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	value, _ = dict.Get(ctx, "001")
	if !value.Equal(decimal.RequireFromString("9800.5")) {
		t.Errorf("Expected 9800.5, got %s", value)
	}
}

func testIncrementAbsent(t *testing.T, dict db.IncrementingDict[string, decimal.Decimal]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	mustAdd[string, decimal.Decimal](t, dict, "present", decimal.NewFromInt(1))

	err := dict.Increment(ctx, "absent", decimal.NewFromInt(5))
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for increment of absent key, got %v", err)
	}

	if found, _ := dict.ContainsKey(ctx, "absent"); found {
		t.Errorf("Increment of absent key must not insert it")
	}
	if n := mustCount[string, decimal.Decimal](t, dict); n != 1 {
		t.Errorf("Expected count 1, got %d", n)
	}
	value, _ := dict.Get(ctx, "present")
	if !value.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Other keys must stay unchanged, got %s", value)
	}
}

func testIncrementMany(t *testing.T, dict db.IncrementingDict[string, decimal.Decimal]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	mustAdd[string, decimal.Decimal](t, dict, "a", decimal.NewFromInt(10))
	mustAdd[string, decimal.Decimal](t, dict, "b", decimal.NewFromInt(20))
	mustAdd[string, decimal.Decimal](t, dict, "d", decimal.NewFromInt(40))

	err := dict.IncrementMany(ctx, map[string]decimal.Decimal{
		"a": decimal.NewFromInt(1),
		"b": decimal.NewFromInt(-2),
	})
	if err != nil {
		t.Fatalf("IncrementMany failed: %v", err)
	}

	a, _ := dict.Get(ctx, "a")
	b, _ := dict.Get(ctx, "b")
	if !a.Equal(decimal.NewFromInt(11)) || !b.Equal(decimal.NewFromInt(18)) {
		t.Errorf("Expected a=11 b=18, got a=%s b=%s", a, b)
	}

	// "c" is missing: pairs before it stay applied, pairs after it are not reached
	err = dict.IncrementMany(ctx, map[string]decimal.Decimal{
		"a": decimal.NewFromInt(1),
		"c": decimal.NewFromInt(1),
		"d": decimal.NewFromInt(1),
	})
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	a, _ = dict.Get(ctx, "a")
	d, _ := dict.Get(ctx, "d")
	if !a.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Increment before the failing key should be applied, got a=%s", a)
	}
	if !d.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Increment after the failing key should not be applied, got d=%s", d)
	}
}

func testIncrementInt64(t *testing.T, dict db.IncrementingDict[string, int64]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	mustAdd[string, int64](t, dict, "001", 10000)
	if err := dict.Increment(ctx, "001", -200); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := dict.Increment(ctx, "001", 3); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	value, err := dict.Get(ctx, "001")
	if err != nil || value != 9830 {
		t.Errorf("Expected 9830, got (%d, %v)", value, err)
	}
}

func testIncrementFloat64(t *testing.T, dict db.IncrementingDict[string, float64]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	mustAdd[string, float64](t, dict, "x", 1.5)
	if err := dict.Increment(ctx, "x", 0.25); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	value, err := dict.Get(ctx, "x")
	if err != nil || value != 1.75 {
		t.Errorf("Expected 1.75, got (%v, %v)", value, err)
	}
}

func testIncrementInt32Boundary(t *testing.T, dict db.IncrementingDict[string, int32]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	mustAdd[string, int32](t, dict, "max", math.MaxInt32-1)
	mustAdd[string, int32](t, dict, "min", math.MinInt32+1)
	if err := dict.Increment(ctx, "max", 1); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := dict.Increment(ctx, "min", -1); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	if value, err := dict.Get(ctx, "max"); err != nil || value != math.MaxInt32 {
		t.Errorf("Expected %d, got (%d, %v)", int32(math.MaxInt32), value, err)
	}
	if value, err := dict.Get(ctx, "min"); err != nil || value != math.MinInt32 {
		t.Errorf("Expected %d, got (%d, %v)", int32(math.MinInt32), value, err)
	}
}

func testIncrementUint64Large(t *testing.T, dict db.IncrementingDict[string, uint64]) {
	defer dict.Drop(context.Background())
	ctx := context.Background()

	requireFeature(t, dict, db.FeatureIncrement)

	const large = math.MaxUint64 - 10
	mustAdd[string, uint64](t, dict, "big", large)
	if value, err := dict.Get(ctx, "big"); err != nil || value != large {
		t.Fatalf("Expected %d, got (%d, %v)", uint64(large), value, err)
	}

	if err := dict.Increment(ctx, "big", 5); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if value, err := dict.Get(ctx, "big"); err != nil || value != math.MaxUint64-5 {
		t.Errorf("Expected %d, got (%d, %v)", uint64(math.MaxUint64-5), value, err)
	}
}
