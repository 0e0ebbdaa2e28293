package instrument

import (
	"github.com/jonwraymond/autotel/telemetry"
)

// Holder is implemented by application types that carry their own Telemetry.
// Instance-held telemetry always wins over operation-level bindings.
type Holder interface {
	Telemetry() *telemetry.Telemetry
}

// Attacher is implemented by application types that accept a lazily attached
// Telemetry. When an operation resolves its wrap-time fallback for an
// instance that has none, it offers the bundle to the instance so later
// calls resolve it directly.
//
// Implementations must tolerate concurrent AttachTelemetry calls; attaching
// the same bundle twice is harmless.
type Attacher interface {
	AttachTelemetry(*telemetry.Telemetry)
}

// Resolve walks the telemetry fallback chain for a call on instance:
//
//  1. the instance itself, when it holds a bundle
//  2. the operation's explicit binding
//  3. the bindings of inner wrapped operations, innermost last
//  4. the wrap-time fallback
//
// Returns nil when every step comes up empty; the caller then executes the
// operation without telemetry. Resolve never panics, even against hostile
// Holder implementations.
func Resolve(instance any, op *Operation) (tel *telemetry.Telemetry) {
	defer func() {
		if recover() != nil {
			tel = nil
		}
	}()

	if h, ok := instance.(Holder); ok && h != nil {
		if t := h.Telemetry(); t != nil {
			return t
		}
	}

	for o := op; o != nil; o = o.inner {
		if t := o.bound.Load(); t != nil {
			return maybeAttach(instance, t)
		}
	}

	if op != nil && op.fallback != nil {
		return maybeAttach(instance, op.fallback)
	}

	return nil
}

// maybeAttach offers the resolved bundle to the instance so the next call
// short-circuits at step 1. Races between concurrent first calls are benign:
// both attach the same bundle.
func maybeAttach(instance any, t *telemetry.Telemetry) *telemetry.Telemetry {
	if a, ok := instance.(Attacher); ok && a != nil {
		a.AttachTelemetry(t)
	}
	return t
}
