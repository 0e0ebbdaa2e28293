package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics is the metrics-sink capability consumed by instrumented code.
//
// Instrument names are chosen per call site (each wrapped operation emits its
// own counter and histogram), so implementations create instruments lazily.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: emission is best-effort; implementations must not panic on
//   instrument-creation failure, they drop the observation instead.
type Metrics interface {
	// IncrementCounter adds value to the named counter.
	IncrementCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue)

	// RecordHistogram records a duration observation in milliseconds.
	RecordHistogram(ctx context.Context, name string, valueMs float64, attrs ...attribute.KeyValue)
}

// metricsImpl is the concrete implementation of Metrics over an OpenTelemetry meter.
type metricsImpl struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewMetrics wraps an OpenTelemetry meter as a Metrics capability.
func NewMetrics(meter metric.Meter) Metrics {
	return &metricsImpl{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (m *metricsImpl) IncrementCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
	c, err := m.counter(name)
	if err != nil {
		return
	}
	c.Add(ctx, value, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) RecordHistogram(ctx context.Context, name string, valueMs float64, attrs ...attribute.KeyValue) {
	h, err := m.histogram(name)
	if err != nil {
		return
	}
	h.Record(ctx, valueMs, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) counter(name string) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c, nil
	}
	c, err := m.meter.Int64Counter(
		name,
		metric.WithDescription("Number of instrumented calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	m.counters[name] = c
	return c, nil
}

func (m *metricsImpl) histogram(name string) (metric.Float64Histogram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h, nil
	}
	h, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription("Instrumented call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	m.histograms[name] = h
	return h, nil
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}

func (m *noopMetrics) IncrementCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
}

func (m *noopMetrics) RecordHistogram(ctx context.Context, name string, valueMs float64, attrs ...attribute.KeyValue) {
}
