package telemetry

import (
	"github.com/jonwraymond/autotel/rules"
)

// Telemetry is the aggregate capability bundle a wrapped call resolves:
// tracer, metrics sink, log sink, the master tracing switch, and the
// trace-decision rule set.
//
// Contract:
//   - Concurrency: a Telemetry is read-only after construction and safe to
//     share by reference across all wrapped callables.
//   - Ownership: the wrapper never mutates it; instances may cache a
//     reference to it (see instrument.Attacher) but never copy-modify it.
type Telemetry struct {
	tracer        Tracer
	metrics       Metrics
	logger        Logger
	tracesEnabled bool
	rules         rules.RuleSet
}

// Option configures a Telemetry at construction time.
type Option func(*Telemetry)

// WithRules sets the trace-decision rule set.
func WithRules(rs rules.RuleSet) Option {
	return func(t *Telemetry) {
		t.rules = rs
	}
}

// WithTracesEnabled sets the master tracing switch. Defaults to true.
func WithTracesEnabled(enabled bool) Option {
	return func(t *Telemetry) {
		t.tracesEnabled = enabled
	}
}

// New builds a Telemetry from the three capabilities.
//
// tracer may be nil, meaning the tracing capability is absent: wrapped calls
// then execute directly with zero telemetry. A nil metrics or logger is
// replaced with a noop so emission sites never need nil checks.
func New(tracer Tracer, metrics Metrics, logger Logger, opts ...Option) *Telemetry {
	t := &Telemetry{
		tracer:        tracer,
		metrics:       metrics,
		logger:        logger,
		tracesEnabled: true,
	}
	if t.metrics == nil {
		t.metrics = NewNoopMetrics()
	}
	if t.logger == nil {
		t.logger = NewNoopLogger()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tracer returns the tracing capability, or nil when absent.
func (t *Telemetry) Tracer() Tracer {
	if t == nil {
		return nil
	}
	return t.tracer
}

// Metrics returns the metrics capability. Never nil on a non-nil Telemetry.
func (t *Telemetry) Metrics() Metrics {
	if t == nil {
		return NewNoopMetrics()
	}
	return t.metrics
}

// Logger returns the log capability. Never nil on a non-nil Telemetry.
func (t *Telemetry) Logger() Logger {
	if t == nil {
		return NewNoopLogger()
	}
	return t.logger
}

// TracesEnabled reports the master tracing switch.
func (t *Telemetry) TracesEnabled() bool {
	return t != nil && t.tracesEnabled
}

// Rules returns the trace-decision rule set, possibly nil.
func (t *Telemetry) Rules() rules.RuleSet {
	if t == nil {
		return nil
	}
	return t.rules
}

// ShouldTrace decides whether tracing applies to the given call.
//
// A nil Telemetry or a disabled master switch denies; otherwise the rule set
// decides, failing open when unconfigured. The predicate only reads
// configuration and is safe for unsynchronized concurrent use.
func (t *Telemetry) ShouldTrace(c rules.Call) bool {
	if t == nil || !t.tracesEnabled {
		return false
	}
	return t.rules.Allow(c)
}
