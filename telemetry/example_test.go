package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/autotel/rules"
	"github.com/jonwraymond/autotel/telemetry"
)

func ExampleNewProvider() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "example-service"
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "none"
	cfg.Logging.Enabled = true
	cfg.Logging.Level = "info"

	ctx := context.Background()
	p, err := telemetry.NewProvider(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = p.Shutdown(ctx)
	}()

	fmt.Println("Provider created successfully")
	// Output:
	// Provider created successfully
}

func ExampleNewProvider_validation() {
	// Missing service name triggers validation error
	cfg := telemetry.DefaultConfig()

	_, err := telemetry.NewProvider(context.Background(), cfg)
	if errors.Is(err, telemetry.ErrMissingServiceName) {
		fmt.Println("Caught: missing service name")
	}
	// Output:
	// Caught: missing service name
}

func ExampleParseConfig() {
	payload := []byte(`
service_name: example-service
tracing:
  enabled: true
  exporter: none
  sample_pct: 1.0
trace_rules:
  http:
    include_routes: ["/api/*"]
    exclude_routes: ["/api/health"]
`)

	cfg, err := telemetry.ParseConfig(payload, telemetry.FormatYAML)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(cfg.ServiceName)
	fmt.Println(cfg.TraceRules.Allow(rules.Call{Layer: rules.LayerHTTP, Route: "/api/orders"}))
	fmt.Println(cfg.TraceRules.Allow(rules.Call{Layer: rules.LayerHTTP, Route: "/api/health"}))
	// Output:
	// example-service
	// true
	// false
}

func ExampleNewLoggerWithWriter() {
	var buf bytes.Buffer
	logger := telemetry.NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "application started",
		telemetry.Field{Key: "version", Value: "1.0.0"})

	fmt.Println("Logged message contains 'application started':",
		bytes.Contains(buf.Bytes(), []byte("application started")))
	// Output:
	// Logged message contains 'application started': true
}

func ExampleParseLogLevel() {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, s := range levels {
		fmt.Printf("%s -> %s\n", s, telemetry.ParseLogLevel(s))
	}
	// Output:
	// debug -> debug
	// info -> info
	// warn -> warn
	// error -> error
	// unknown -> info
}
