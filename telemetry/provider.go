package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/autotel/telemetry/exporters"
)

// Provider owns the OpenTelemetry SDK providers built from a Config and hands
// out the Telemetry bundle wrapped code consumes.
//
// Contract:
//   - Concurrency: safe for concurrent use after construction.
//   - Context: Shutdown honors cancellation/deadlines.
//   - Errors: Shutdown is idempotent and joins all provider errors.
type Provider struct {
	telemetry *Telemetry

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewProvider validates cfg and builds the full telemetry pipeline.
//
// Disabled subsystems degrade instead of failing: a disabled tracer leaves
// the tracing capability absent so wrapped calls run untraced, and disabled
// metrics or logging fall back to noop sinks.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var tracer Tracer
	if cfg.Tracing.Enabled {
		tp, t, err := setupTracing(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		p.tracerProvider = tp
		tracer = t
	}

	var metrics Metrics
	if cfg.Metrics.Enabled {
		mp, m, err := setupMetrics(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to setup metrics: %w", err)
		}
		p.meterProvider = mp
		metrics = m
	} else {
		metrics = NewMetrics(metricnoop.NewMeterProvider().Meter("noop"))
	}

	var logger Logger
	if cfg.Logging.Enabled {
		logger = NewLogger(cfg.Logging.Level)
	} else {
		logger = NewNoopLogger()
	}

	p.telemetry = New(tracer, metrics, logger,
		WithTracesEnabled(cfg.Tracing.Enabled),
		WithRules(cfg.TraceRules),
	)

	return p, nil
}

func setupTracing(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, Tracer, error) {
	exporter, err := exporters.NewTraceExporter(ctx, exporterOptions(cfg, cfg.Tracing.Exporter))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.Tracing.SamplePct >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.Tracing.SamplePct <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.Tracing.SamplePct)
	}
	sampler = sdktrace.ParentBased(sampler)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return tp, NewTracer(tp.Tracer(cfg.ServiceName)), nil
}

func setupMetrics(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, Metrics, error) {
	reader, err := exporters.NewMetricsReader(ctx, exporterOptions(cfg, cfg.Metrics.Exporter))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics reader: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, NewMetrics(mp.Meter(cfg.ServiceName)), nil
}

func exporterOptions(cfg Config, exporter string) exporters.Options {
	return exporters.Options{
		Exporter:      exporter,
		Endpoint:      cfg.Endpoint,
		Protocol:      cfg.Protocol,
		Insecure:      cfg.Insecure,
		TLSSkipVerify: cfg.TLSSkipVerify,
	}
}

// Telemetry returns the bundle wrapped code binds to. Never nil.
func (p *Provider) Telemetry() *Telemetry {
	return p.telemetry
}

// Meter returns the configured meter, or a noop meter when metrics are disabled.
func (p *Provider) Meter() metric.Meter {
	if p.meterProvider == nil {
		return metricnoop.NewMeterProvider().Meter("noop")
	}
	return p.meterProvider.Meter("autotel")
}

// Shutdown flushes and stops all telemetry providers. Safe to call more than
// once; subsequent calls return the first result.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		g, ctx := errgroup.WithContext(ctx)

		if p.tracerProvider != nil {
			tp := p.tracerProvider
			g.Go(func() error {
				if err := tp.Shutdown(ctx); err != nil {
					return fmt.Errorf("tracer shutdown: %w", err)
				}
				return nil
			})
		}
		if p.meterProvider != nil {
			mp := p.meterProvider
			g.Go(func() error {
				if err := mp.Shutdown(ctx); err != nil {
					return fmt.Errorf("meter shutdown: %w", err)
				}
				return nil
			})
		}

		p.shutdownErr = g.Wait()
	})
	return p.shutdownErr
}
