// Package util provides measurement helpers for the dictionary perf tool.
//
// The package contains:
//   - Stats: summary statistics (mean, standard deviation, min/max) over a set of samples
//   - WorkerBalance: how evenly operations were spread over the workers of a run
//   - LatencyHistogram: a bucketed, thread-safe latency histogram with percentile estimates
//
// The histogram uses fixed exponential buckets from one microsecond to ten seconds,
// so recording a sample never allocates and many workers can share one histogram.
package util
