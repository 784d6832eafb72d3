package util

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestNewStats(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if s := NewStats(nil); s != (Stats{}) {
			t.Errorf("Expected zero stats, got %+v", s)
		}
	})

	t.Run("Values", func(t *testing.T) {
		s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		if s.Mean != 5 {
			t.Errorf("Expected mean 5, got %v", s.Mean)
		}
		if s.StdDeviation != 2 {
			t.Errorf("Expected std deviation 2, got %v", s.StdDeviation)
		}
		if s.Min != 2 || s.Max != 9 {
			t.Errorf("Expected min 2 and max 9, got %v and %v", s.Min, s.Max)
		}
		if math.Abs(s.MinMaxRatio-2.0/9.0) > 1e-12 {
			t.Errorf("Expected min/max ratio 2/9, got %v", s.MinMaxRatio)
		}
	})
}

func TestWorkerBalance(t *testing.T) {
	even := NewWorkerBalance([]float64{100, 100, 100, 100})
	if even.Quality != 1 {
		t.Errorf("Expected quality 1 for an even spread, got %v", even.Quality)
	}

	skewed := NewWorkerBalance([]float64{10, 100, 100, 190})
	if skewed.Quality >= even.Quality {
		t.Errorf("Expected a skewed spread to score lower, got %v", skewed.Quality)
	}

	idle := NewWorkerBalance([]float64{0, 0})
	if idle.Mean != 0 {
		t.Errorf("Expected mean 0, got %v", idle.Mean)
	}
}

func TestLatencyHistogram(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		h := NewLatencyHistogram()
		if h.Count() != 0 || h.Mean() != 0 || h.Percentile(50) != 0 {
			t.Errorf("Expected an empty histogram to report zeros")
		}
		_, percentages := h.Distribution()
		for _, p := range percentages {
			if p != 0 {
				t.Fatalf("Expected empty distribution, got %v", percentages)
			}
		}
	})

	t.Run("Percentiles", func(t *testing.T) {
		h := NewLatencyHistogram()
		for i := 0; i < 90; i++ {
			h.Observe(80 * time.Microsecond)
		}
		for i := 0; i < 10; i++ {
			h.Observe(3 * time.Millisecond)
		}

		if h.Count() != 100 {
			t.Errorf("Expected 100 samples, got %d", h.Count())
		}
		if got := h.Percentile(50); got != 100*time.Microsecond {
			t.Errorf("Expected p50 bucket bound 100µs, got %v", got)
		}
		if got := h.Percentile(90); got != 100*time.Microsecond {
			t.Errorf("Expected p90 bucket bound 100µs, got %v", got)
		}
		if got := h.Percentile(99); got != 3*time.Millisecond {
			t.Errorf("Expected p99 capped at the observed max 3ms, got %v", got)
		}
		if got := h.Max(); got != 3*time.Millisecond {
			t.Errorf("Expected max 3ms, got %v", got)
		}
		expectedMean := (90*80*time.Microsecond + 10*3*time.Millisecond) / 100
		if got := h.Mean(); got != expectedMean {
			t.Errorf("Expected mean %v, got %v", expectedMean, got)
		}
		if got := h.Percentile(101); got != 0 {
			t.Errorf("Expected 0 for an invalid percentile, got %v", got)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		h := NewLatencyHistogram()
		h.Observe(time.Minute)
		if got := h.Percentile(100); got != time.Minute {
			t.Errorf("Expected the observed max for the overflow bucket, got %v", got)
		}
		boundaries, percentages := h.Distribution()
		if len(percentages) != len(boundaries)+1 {
			t.Fatalf("Expected one overflow bucket, got %d buckets for %d boundaries", len(percentages), len(boundaries))
		}
		if percentages[len(percentages)-1] != 100 {
			t.Errorf("Expected all samples in the overflow bucket, got %v", percentages)
		}
	})

	t.Run("ConcurrentObserve", func(t *testing.T) {
		h := NewLatencyHistogram()
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 1000; i++ {
					h.Observe(time.Duration(i) * time.Microsecond)
				}
			}()
		}
		wg.Wait()
		if h.Count() != 8000 {
			t.Errorf("Expected 8000 samples, got %d", h.Count())
		}

		h.Reset()
		if h.Count() != 0 || h.Max() != 0 {
			t.Errorf("Expected reset to clear all samples")
		}
	})
}
