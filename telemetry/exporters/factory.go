// Package exporters provides factory functions for creating OpenTelemetry exporters.
package exporters

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Options selects and configures an exporter.
type Options struct {
	// Exporter names the exporter: otlp, stdout, prometheus (metrics only),
	// none. Empty behaves as none.
	Exporter string

	// Endpoint is the OTLP collector endpoint (host:port). Empty falls back
	// to the standard OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint string

	// Protocol selects the OTLP transport: "grpc" (default) or "http/protobuf".
	Protocol string

	// Insecure disables TLS on the OTLP connection.
	Insecure bool

	// TLSSkipVerify skips certificate verification for internal CAs.
	TLSSkipVerify bool
}

// NewTraceExporter creates a trace span exporter from the options.
// Supported exporters: otlp, stdout, none.
func NewTraceExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))

	case "otlp":
		endpoint, err := resolveEndpoint(opts, "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
		if err != nil {
			return nil, err
		}
		if opts.Protocol == "http/protobuf" {
			o := []otlptracehttp.Option{
				otlptracehttp.WithEndpoint(stripScheme(endpoint)),
			}
			if opts.Insecure {
				o = append(o, otlptracehttp.WithInsecure())
			} else if opts.TLSSkipVerify {
				o = append(o, otlptracehttp.WithTLSClientConfig(&tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
				}))
			}
			return otlptracehttp.New(ctx, o...)
		}
		o := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(stripScheme(endpoint)),
		}
		if opts.Insecure {
			o = append(o, otlptracegrpc.WithInsecure())
		} else if opts.TLSSkipVerify {
			o = append(o, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
			})))
		}
		return otlptracegrpc.New(ctx, o...)

	case "none", "":
		// A discarding exporter keeps the pipeline shape uniform
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))

	default:
		return nil, fmt.Errorf("unknown tracing exporter: %q", opts.Exporter)
	}
}

// NewMetricsReader creates a metrics reader from the options.
// Supported exporters: otlp, prometheus, stdout, none.
func NewMetricsReader(ctx context.Context, opts Options) (sdkmetric.Reader, error) {
	switch opts.Exporter {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "otlp":
		endpoint, err := resolveEndpoint(opts, "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
		if err != nil {
			return nil, err
		}
		var exp sdkmetric.Exporter
		if opts.Protocol == "http/protobuf" {
			o := []otlpmetrichttp.Option{
				otlpmetrichttp.WithEndpoint(stripScheme(endpoint)),
			}
			if opts.Insecure {
				o = append(o, otlpmetrichttp.WithInsecure())
			} else if opts.TLSSkipVerify {
				o = append(o, otlpmetrichttp.WithTLSClientConfig(&tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
				}))
			}
			exp, err = otlpmetrichttp.New(ctx, o...)
		} else {
			o := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpoint(stripScheme(endpoint)),
			}
			if opts.Insecure {
				o = append(o, otlpmetricgrpc.WithInsecure())
			} else if opts.TLSSkipVerify {
				o = append(o, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
				})))
			}
			exp, err = otlpmetricgrpc.New(ctx, o...)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return exp, nil

	case "none", "":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", opts.Exporter)
	}
}

// resolveEndpoint returns the configured endpoint, falling back to the
// standard OTLP environment variables.
func resolveEndpoint(opts Options, signalEnv string) (string, error) {
	if opts.Endpoint != "" {
		return opts.Endpoint, nil
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		return v, nil
	}
	if v := os.Getenv(signalEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("OTLP endpoint not configured: set endpoint or OTEL_EXPORTER_OTLP_ENDPOINT")
}

// stripScheme removes http:// or https:// from an endpoint URL.
// The OTLP exporters expect just host:port, not full URLs.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return endpoint
}
