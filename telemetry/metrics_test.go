package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// TestMetrics_Counter verifies counter increments are recorded with attributes.
func TestMetrics_Counter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp.Meter("test"))

	ctx := context.Background()
	m.IncrementCounter(ctx, "orders.Submit.calls", 1, attribute.String("outcome", "success"))
	m.IncrementCounter(ctx, "orders.Submit.calls", 1, attribute.String("outcome", "success"))

	rm := collect(t, reader)
	metric, ok := findMetric(rm, "orders.Submit.calls")
	if !ok {
		t.Fatal("counter not found")
	}

	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", metric.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
		t.Errorf("expected one data point of 2, got: %+v", sum.DataPoints)
	}
}

// TestMetrics_Histogram verifies duration observations are recorded.
func TestMetrics_Histogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp.Meter("test"))

	ctx := context.Background()
	m.RecordHistogram(ctx, "orders.Submit.duration_ms", 12.5, attribute.String("outcome", "success"))
	m.RecordHistogram(ctx, "orders.Submit.duration_ms", 7.5, attribute.String("outcome", "success"))

	rm := collect(t, reader)
	metric, ok := findMetric(rm, "orders.Submit.duration_ms")
	if !ok {
		t.Fatal("histogram not found")
	}

	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", metric.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 || dp.Sum != 20.0 {
		t.Errorf("expected count=2 sum=20.0, got count=%d sum=%f", dp.Count, dp.Sum)
	}
}

// TestMetrics_InstrumentReuse verifies repeated emissions reuse one instrument
// per name rather than creating duplicates.
func TestMetrics_InstrumentReuse(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp.Meter("test")).(*metricsImpl)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		m.IncrementCounter(ctx, "a.calls", 1)
		m.RecordHistogram(ctx, "a.duration_ms", 1.0)
	}

	if len(m.counters) != 1 {
		t.Errorf("expected 1 cached counter, got %d", len(m.counters))
	}
	if len(m.histograms) != 1 {
		t.Errorf("expected 1 cached histogram, got %d", len(m.histograms))
	}
}

// TestNoopMetrics verifies the noop implementation accepts emissions silently.
func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	ctx := context.Background()
	m.IncrementCounter(ctx, "x.calls", 1)
	m.RecordHistogram(ctx, "x.duration_ms", 1.0)
}
