package telemetry

import (
	"fmt"

	"github.com/jonwraymond/autotel/rules"
)

// Config holds all configuration for building a Provider.
type Config struct {
	ServiceName string `koanf:"service_name"`
	Version     string `koanf:"version"`

	// Endpoint is the OTLP collector endpoint (host:port) shared by the
	// trace and metric exporters. Empty falls back to the standard
	// OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint string `koanf:"endpoint"`

	// Protocol selects the OTLP transport: "grpc" (default) or "http/protobuf".
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS on the OTLP connection (local collectors).
	Insecure bool `koanf:"insecure"`

	// TLSSkipVerify skips certificate verification for internal CAs.
	TLSSkipVerify bool `koanf:"tls_skip_verify"`

	Tracing TracingConfig `koanf:"tracing"`
	Metrics MetricsConfig `koanf:"metrics"`
	Logging LoggingConfig `koanf:"logging"`

	// TraceRules is the per-layer include/exclude rule set consumed by the
	// decision engine. Absent rules trace everything.
	TraceRules rules.RuleSet `koanf:"trace_rules"`
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Exporter  string  `koanf:"exporter"`   // otlp|stdout|none
	SamplePct float64 `koanf:"sample_pct"` // 0.0-1.0
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"` // otlp|prometheus|stdout|none
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   string `koanf:"level"` // debug|info|warn|error
}

// Valid tracing exporters.
var validTracingExporters = map[string]bool{
	"otlp":   true,
	"stdout": true,
	"none":   true,
	"":       true, // Empty is valid (disabled)
}

// Valid metrics exporters.
var validMetricsExporters = map[string]bool{
	"otlp":       true,
	"prometheus": true,
	"stdout":     true,
	"none":       true,
	"":           true, // Empty is valid (disabled)
}

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"":      true, // Empty is valid (disabled)
}

// Valid OTLP protocols.
var validProtocols = map[string]bool{
	"grpc":          true,
	"http/protobuf": true,
	"":              true, // Empty defaults to grpc
}

// DefaultConfig returns conservative defaults: everything disabled, local
// collector endpoint, full sampling once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName: "",
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		Insecure:    true,
		Tracing: TracingConfig{
			Enabled:   false,
			Exporter:  "otlp",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Exporter: "otlp",
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	if !validProtocols[c.Protocol] {
		return fmt.Errorf("%w: %q", ErrInvalidProtocol, c.Protocol)
	}

	if c.Tracing.Enabled {
		if !validTracingExporters[c.Tracing.Exporter] {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, c.Tracing.Exporter)
		}
		if c.Tracing.SamplePct < MinSamplePct || c.Tracing.SamplePct > MaxSamplePct {
			return fmt.Errorf("%w: got %f", ErrInvalidSamplePct, c.Tracing.SamplePct)
		}
	}

	if c.Metrics.Enabled {
		if !validMetricsExporters[c.Metrics.Exporter] {
			return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, c.Metrics.Exporter)
		}
	}

	if c.Logging.Enabled {
		if !validLogLevels[c.Logging.Level] {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
		}
	}

	return nil
}
