package instrument

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/autotel/rules"
)

// Kind distinguishes wrapped methods from wrapped free functions.
type Kind string

const (
	// KindMethod marks an operation that belongs to a type.
	KindMethod Kind = "method"

	// KindFunc marks a standalone function.
	KindFunc Kind = "function"
)

// sdkName tags every emission with the producing library.
const sdkName = "autotel-go"

// Descriptor identifies a wrapped operation: what it is called, what type it
// belongs to, and where it lives. All span names, metric names, attributes,
// and decision-engine calls derive from it.
type Descriptor struct {
	// Kind is KindMethod or KindFunc.
	Kind Kind

	// Class is the owning type name. Empty for free functions.
	Class string

	// Method is the operation name within its class, or the bare function
	// name for free functions.
	Method string

	// Module is the import path of the package defining the operation.
	Module string
}

// Qualified returns the dotted Class.Method identity, or just the name for
// free functions.
func (d Descriptor) Qualified() string {
	if d.Class == "" {
		return d.Method
	}
	return d.Class + "." + d.Method
}

// SpanName returns the span name for the operation, e.g.
// "autotel.method.OrderService.Submit".
func (d Descriptor) SpanName() string {
	return "autotel." + string(d.Kind) + "." + d.Qualified()
}

// CounterName returns the per-operation call counter name.
func (d Descriptor) CounterName() string {
	return d.SpanName() + ".calls"
}

// HistogramName returns the per-operation duration histogram name.
func (d Descriptor) HistogramName() string {
	return d.SpanName() + ".duration_ms"
}

// SpanAttrs returns the identity attributes attached to every span.
func (d Descriptor) SpanAttrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("code.function", d.Method),
		attribute.String("code.class", d.Class),
		attribute.String("code.module", d.Module),
		attribute.String("telemetry.kind", string(d.Kind)),
		attribute.String("telemetry.sdk", sdkName),
	}
}

// Call returns the decision-engine call for the operation. Methods are judged
// on the business layer by their bare name, so rule patterns like "Get*"
// match across classes. Free functions carry their own layer, which no rule
// set configures, so they always trace when tracing is on.
func (d Descriptor) Call() rules.Call {
	layer := rules.LayerBusiness
	if d.Kind == KindFunc {
		layer = string(KindFunc)
	}
	return rules.Call{
		Layer:  layer,
		Method: d.Method,
	}
}
