// Package stats summarizes how long per-address fetches took.
package stats

import (
	"math"
	"sort"
	"time"
)

// Latency is a percentile summary of fetch durations.
type Latency struct {
	Count         int
	P50, P95, Max time.Duration
}

// Summarize computes nearest-rank percentiles over samples. With few samples
// P95 equals Max.
func Summarize(samples []time.Duration) Latency {
	if len(samples) == 0 {
		return Latency{}
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return Latency{
		Count: len(sorted),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		Max:   sorted[len(sorted)-1],
	}
}

// percentile uses index = ceil(n*p) - 1 clamped to [0, n-1].
func percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
