package stats

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	ms := func(v ...int) []time.Duration {
		out := make([]time.Duration, len(v))
		for i, x := range v {
			out[i] = time.Duration(x) * time.Millisecond
		}
		return out
	}

	tests := []struct {
		name    string
		samples []time.Duration
		want    Latency
	}{
		{"empty", nil, Latency{}},
		{"single", ms(120), Latency{Count: 1, P50: 120 * time.Millisecond, P95: 120 * time.Millisecond, Max: 120 * time.Millisecond}},
		{"unsorted", ms(300, 100, 200, 400), Latency{Count: 4, P50: 200 * time.Millisecond, P95: 400 * time.Millisecond, Max: 400 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.samples); got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeDoesNotMutate(t *testing.T) {
	samples := []time.Duration{3, 1, 2}
	Summarize(samples)
	if samples[0] != 3 || samples[1] != 1 || samples[2] != 2 {
		t.Errorf("input reordered: %v", samples)
	}
}
