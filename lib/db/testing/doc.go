// Package testing provides standardised tests and benchmarks for
// dictionary implementations that satisfy the db.SortedDict and db.IncrementingDict interfaces.
//
// The package contains:
//   - testing: A conformance suite for the dictionary contract (point access, duplicate
//     handling, clearing, inclusive range scans, iteration order, cursor release and
//     increments), run against every backend so they all agree with the in-memory one
//   - benchmark: Performance tests for measuring throughput of common dictionary operations
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t testing.TB, name string) db.SortedDict[string, string] {
//		dict, err := NewMyDict[string, string](name)
//		if err != nil {
//			t.Fatal(err)
//		}
//		return dict
//	}
//
//	// Running the standard test suite
//	dbtesting.RunSortedDictTests(t, "MyDict", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunSortedDictBenchmarks(b, "MyDict", factory, nil)
package testing
