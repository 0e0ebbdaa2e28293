package telemetry

import "errors"

// Configuration errors.
var (
	// ErrMissingServiceName indicates Config.ServiceName is empty.
	ErrMissingServiceName = errors.New("telemetry: service name is required")

	// ErrInvalidSamplePct indicates Tracing.SamplePct is not in [0.0, 1.0].
	ErrInvalidSamplePct = errors.New("telemetry: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter indicates an unknown tracing exporter name.
	ErrInvalidTracingExporter = errors.New("telemetry: unknown tracing exporter")

	// ErrInvalidMetricsExporter indicates an unknown metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("telemetry: unknown metrics exporter")

	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("telemetry: unknown log level")

	// ErrInvalidProtocol indicates an unknown OTLP protocol name.
	ErrInvalidProtocol = errors.New("telemetry: unknown OTLP protocol")
)

// Config loading errors.
var (
	// ErrUnsupportedFormat indicates a config file format that is not YAML or JSON.
	ErrUnsupportedFormat = errors.New("telemetry: unsupported config format")

	// ErrConfigParse indicates the config payload could not be parsed.
	ErrConfigParse = errors.New("telemetry: config parse failed")

	// ErrMissingEnv indicates a ${VAR} reference in config to an unset variable.
	ErrMissingEnv = errors.New("telemetry: missing required environment variables")
)

// Validation constants.
const (
	// MinSamplePct is the minimum valid sampling percentage.
	MinSamplePct = 0.0
	// MaxSamplePct is the maximum valid sampling percentage.
	MaxSamplePct = 1.0
)

