package util

import (
	"math"
	"sync"
	"time"
)

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes the standard deviation, minimum, maximum and mean
// of the given values (population formula).
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	minMaxRatio := 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

// WorkerBalance describes how evenly the operations of a perf run were
// spread over its workers
type WorkerBalance struct {
	Stats
	// 1.0 means every worker completed the same number of operations
	Quality float64 `json:"quality"`
}

// NewWorkerBalance computes the balance of per worker operation counts
func NewWorkerBalance(opsPerWorker []float64) WorkerBalance {
	stats := NewStats(opsPerWorker)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower coefficient of variation and higher min/max ratio mean a better balance
	quality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return WorkerBalance{
		Stats:   stats,
		Quality: quality,
	}
}

// ----------------------------------------------------------------------------
// LatencyHistogram
// ----------------------------------------------------------------------------

// latencyBoundaries are the upper bounds of the histogram buckets,
// exponential from one microsecond to ten seconds
var latencyBoundaries = []time.Duration{
	1 * time.Microsecond, 2 * time.Microsecond, 5 * time.Microsecond,
	10 * time.Microsecond, 25 * time.Microsecond, 50 * time.Microsecond,
	100 * time.Microsecond, 250 * time.Microsecond, 500 * time.Microsecond,
	1 * time.Millisecond, 2500 * time.Microsecond, 5 * time.Millisecond,
	10 * time.Millisecond, 25 * time.Millisecond, 50 * time.Millisecond,
	100 * time.Millisecond, 250 * time.Millisecond, 500 * time.Millisecond,
	1 * time.Second, 10 * time.Second,
}

// LatencyHistogram tracks the distribution of operation latencies of a perf run.
// Samples are counted in fixed buckets, so percentiles are estimates bounded
// by the bucket they fall into.
type LatencyHistogram struct {
	mutex   sync.RWMutex
	buckets []int64 // len(latencyBoundaries)+1, the last one holds everything above 10s
	count   int64
	sum     time.Duration
	max     time.Duration
}

// NewLatencyHistogram creates an empty histogram
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{
		buckets: make([]int64, len(latencyBoundaries)+1),
	}
}

// Observe records a single latency sample
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Observe(d time.Duration) {
	idx := len(latencyBoundaries)
	for i, boundary := range latencyBoundaries {
		if d <= boundary {
			idx = i
			break
		}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.buckets[idx]++
	h.count++
	h.sum += d
	if d > h.max {
		h.max = d
	}
}

// ObserveSince records the time elapsed since start
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) ObserveSince(start time.Time) {
	h.Observe(time.Since(start))
}

// Count returns the total number of samples
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// Mean returns the exact average latency
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Mean() time.Duration {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return h.sum / time.Duration(h.count)
}

// Max returns the largest observed latency
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Max() time.Duration {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.max
}

// Percentile returns the upper bound of the bucket holding the given percentile (0-100).
// For samples above the last boundary the observed maximum is returned.
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Percentile(percentile float64) time.Duration {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * percentile / 100.0))
	if target == 0 {
		target = 1
	}

	var cumulative int64
	for i, count := range h.buckets {
		cumulative += count
		if cumulative < target {
			continue
		}
		if i < len(latencyBoundaries) {
			return min(latencyBoundaries[i], h.max)
		}
		return h.max
	}
	return h.max
}

// Distribution returns the bucket boundaries and the percentage of samples in each bucket.
// The percentages slice has one more element than the boundaries (samples above the last one).
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Distribution() ([]time.Duration, []float64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	percentages := make([]float64, len(h.buckets))
	if h.count == 0 {
		return latencyBoundaries, percentages
	}
	for i, count := range h.buckets {
		percentages[i] = float64(count) * 100.0 / float64(h.count)
	}
	return latencyBoundaries, percentages
}

// Reset clears all samples
//
// Thread-safe: This method is safe for concurrent use
func (h *LatencyHistogram) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.count = 0
	h.sum = 0
	h.max = 0
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}
