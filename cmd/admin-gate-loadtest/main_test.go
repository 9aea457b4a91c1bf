package main

import (
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = time.Duration(i+1) * time.Millisecond
	}

	if got := percentile(samples, 50); got != 50*time.Millisecond {
		t.Fatalf("p50: got %s", got)
	}
	if got := percentile(samples, 99); got != 99*time.Millisecond {
		t.Fatalf("p99: got %s", got)
	}
	if got := percentile(samples, 100); got != 100*time.Millisecond {
		t.Fatalf("p100: got %s", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty: got %s", got)
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	s := runPhase(100, 4, 10, func(idx int) bool { return idx%2 == 0 })
	if s.ops != 100 {
		t.Fatalf("expected 100 ops, got %d", s.ops)
	}
	if s.failures == 0 || s.failures == 100 {
		t.Fatalf("expected some failures, got %d", s.failures)
	}
}
