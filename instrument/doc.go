// Package instrument wraps application operations with unified tracing,
// metrics, and logging.
//
// A wrapped operation resolves its Telemetry bundle at call time, consults
// the trace-decision rules, and emits one span, one call counter, one
// duration histogram, and one log line per invocation. Telemetry failures
// never affect the wrapped operation: every emission is individually
// guarded, and the operation's result and error pass through unchanged.
package instrument
