// Package telemetry provides the capability bundle consumed by instrumented
// code: a tracer, a metrics sink, a structured log sink, the master tracing
// switch, and the trace-decision rule set.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire a Telemetry into the instrument and
// httpmw packages, or build one from config via Provider.
package telemetry
