package otel

import (
	"context"
	"sync"
	"testing"

	adminGate "github.com/MrEthical07/adminGate"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot adminGate.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() adminGate.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := adminGate.MetricsSnapshot{
		Counters:   make(map[adminGate.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[adminGate.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 {
				return sum.DataPoints[0].Value, true
			}
		}
	}
	return 0, false
}

func findGaugePoints(rm metricdata.ResourceMetrics, name string) []metricdata.DataPoint[int64] {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok {
				return g.DataPoints
			}
		}
	}
	return nil
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: adminGate.MetricsSnapshot{
			Counters: map[adminGate.MetricID]uint64{
				adminGate.MetricLoginSuccess: 3,
			},
			Histograms: map[adminGate.MetricID][]uint64{
				adminGate.MetricRequireAuthLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewFromSource(provider.Meter("admingate-test"), src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if v, ok := findSum(rm, "admingate_login_success_total"); !ok || v != 3 {
		t.Fatalf("expected login_success 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "admingate_audit_dropped_total"); !ok || v != 1 {
		t.Fatalf("expected audit_dropped 1, got %d (found=%v)", v, ok)
	}
	if points := findGaugePoints(rm, "admingate_require_auth_latency_seconds_bucket"); len(points) != 8 {
		t.Fatalf("expected 8 bucket points, got %d", len(points))
	}
}

func TestExporterRejectsNil(t *testing.T) {
	_, provider := newReader()

	if _, err := NewFromSource(provider.Meter("admingate-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := New(provider.Meter("admingate-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil guard, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: adminGate.MetricsSnapshot{
			Counters:   map[adminGate.MetricID]uint64{adminGate.MetricAuthSuccess: 1},
			Histograms: map[adminGate.MetricID][]uint64{},
		},
	}

	exp, err := NewFromSource(provider.Meter("admingate-test"), src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[adminGate.MetricAuthSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
