package instrument

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/autotel/telemetry"
)

// Func is the shape of a wrappable operation.
type Func func(ctx context.Context, input any) (any, error)

// errPanicked closes the span when the wrapped operation panics. The panic
// itself propagates unchanged.
var errPanicked = errors.New("instrument: operation panicked")

// Operation is a wrapped callable. It carries the identity used for all
// emissions, the wrapped function, and the telemetry bindings consulted by
// the resolver at call time.
//
// Contract:
//   - Concurrency: safe for concurrent invocation; Bind may race with calls,
//     later calls observe the new binding.
//   - Errors: the wrapped function's result and error pass through unchanged.
type Operation struct {
	desc     Descriptor
	fn       Func
	bound    atomic.Pointer[telemetry.Telemetry]
	fallback *telemetry.Telemetry
	inner    *Operation
}

// Option configures an Operation at wrap time.
type Option func(*Operation)

// WithFallback sets the wrap-time fallback bundle, the last step of the
// resolution chain.
func WithFallback(t *telemetry.Telemetry) Option {
	return func(o *Operation) {
		o.fallback = t
	}
}

// New wraps fn under the given identity.
func New(desc Descriptor, fn Func, opts ...Option) *Operation {
	o := &Operation{desc: desc, fn: fn}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WrapFunc wraps a free function, deriving its name and package from the
// function pointer.
func WrapFunc(fn Func, opts ...Option) *Operation {
	module, name := funcIdentity(fn)
	return New(Descriptor{
		Kind:   KindFunc,
		Method: name,
		Module: module,
	}, fn, opts...)
}

// WrapFuncNamed wraps a free function under an explicit name, for closures
// and other functions whose runtime name is unhelpful.
func WrapFuncNamed(name string, fn Func, opts ...Option) *Operation {
	module, _ := funcIdentity(fn)
	return New(Descriptor{
		Kind:   KindFunc,
		Method: name,
		Module: module,
	}, fn, opts...)
}

// Rewrap layers a new identity over an already wrapped operation. The outer
// operation invokes the inner one, and the resolver chain reaches through to
// the inner bindings, so telemetry bound to the inner layer still resolves.
func Rewrap(inner *Operation, desc Descriptor, opts ...Option) *Operation {
	o := New(desc, func(ctx context.Context, input any) (any, error) {
		return inner.Invoke(ctx, input)
	}, opts...)
	o.inner = inner
	return o
}

// Descriptor returns the operation's identity.
func (o *Operation) Descriptor() Descriptor {
	return o.desc
}

// Bind attaches a telemetry bundle to the operation. Passing nil clears the
// binding so resolution falls through to inner layers and the fallback.
func (o *Operation) Bind(t *telemetry.Telemetry) {
	o.bound.Store(t)
}

// Unwrap returns the operation this one was rewrapped over, or nil.
func (o *Operation) Unwrap() *Operation {
	return o.inner
}

// Func adapts the operation back to a plain Func for callers that compose
// pipelines out of function values.
func (o *Operation) Func() Func {
	return o.Invoke
}

// Invoke runs the operation without an owning instance.
func (o *Operation) Invoke(ctx context.Context, input any) (any, error) {
	return o.InvokeOn(ctx, nil, input)
}

// InvokeOn runs the operation on behalf of instance.
//
// The telemetry bundle is resolved per call. When no bundle resolves, the
// tracing capability is absent, or the decision rules deny the call, the
// wrapped function executes directly with zero telemetry overhead.
func (o *Operation) InvokeOn(ctx context.Context, instance any, input any) (any, error) {
	tel := Resolve(instance, o)
	if tel == nil || tel.Tracer() == nil || !tel.ShouldTrace(o.desc.Call()) {
		return o.fn(ctx, input)
	}
	return o.invokeTraced(ctx, tel, input)
}

func (o *Operation) invokeTraced(ctx context.Context, tel *telemetry.Telemetry, input any) (any, error) {
	start := time.Now()

	sctx, span, ok := safeStart(tel.Tracer(), ctx, o.desc)
	if !ok {
		return o.fn(ctx, input)
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		// The operation panicked. Close the span and let the panic propagate.
		guard("span", func() {
			span.SetAttributes(attribute.Float64("duration_ms", durationMs(start)))
			tel.Tracer().EndSpan(span, errPanicked)
		})
	}()

	result, err := o.fn(sctx, input)
	completed = true
	durMs := durationMs(start)

	if err != nil {
		o.emitError(ctx, tel, span, err, durMs)
		return result, err
	}
	o.emitSuccess(ctx, tel, span, durMs)
	return result, nil
}

func (o *Operation) emitSuccess(ctx context.Context, tel *telemetry.Telemetry, span trace.Span, durMs float64) {
	guard("span", func() {
		span.SetAttributes(attribute.Float64("duration_ms", durMs))
		tel.Tracer().EndSpan(span, nil)
	})

	tags := o.tags("success", nil)
	guard("metrics", func() {
		tel.Metrics().IncrementCounter(ctx, o.desc.CounterName(), 1, tags...)
		tel.Metrics().RecordHistogram(ctx, o.desc.HistogramName(), durMs, tags...)
	})

	guard("logs", func() {
		tel.Logger().Info(ctx, o.desc.Qualified()+" executed successfully",
			telemetry.Field{Key: "class", Value: o.desc.Class},
			telemetry.Field{Key: "function", Value: o.desc.Method},
			telemetry.Field{Key: "duration_ms", Value: durMs},
			telemetry.Field{Key: "outcome", Value: "success"},
		)
	})
}

func (o *Operation) emitError(ctx context.Context, tel *telemetry.Telemetry, span trace.Span, err error, durMs float64) {
	guard("span", func() {
		span.SetAttributes(attribute.Float64("duration_ms", durMs))
		tel.Tracer().EndSpan(span, err)
	})

	excType := fmt.Sprintf("%T", err)
	tags := o.tags("error", &excType)
	guard("metrics", func() {
		tel.Metrics().IncrementCounter(ctx, o.desc.CounterName(), 1, tags...)
		tel.Metrics().RecordHistogram(ctx, o.desc.HistogramName(), durMs, tags...)
	})

	guard("logs", func() {
		tel.Logger().Error(ctx, "error in "+o.desc.Qualified(),
			telemetry.Field{Key: "class", Value: o.desc.Class},
			telemetry.Field{Key: "function", Value: o.desc.Method},
			telemetry.Field{Key: "duration_ms", Value: durMs},
			telemetry.Field{Key: "outcome", Value: "error"},
			telemetry.Field{Key: "exception.type", Value: excType},
			telemetry.Field{Key: "exception.message", Value: err.Error()},
		)
	})
}

func (o *Operation) tags(outcome string, excType *string) []attribute.KeyValue {
	tags := []attribute.KeyValue{
		attribute.String("class", o.desc.Class),
		attribute.String("function", o.desc.Method),
		attribute.String("outcome", outcome),
	}
	if excType != nil {
		tags = append(tags, attribute.String("exception.type", *excType))
	}
	return tags
}

// safeStart starts the span under a guard. A panicking tracer yields ok=false
// and the call proceeds untraced.
func safeStart(tracer telemetry.Tracer, ctx context.Context, desc Descriptor) (sctx context.Context, span trace.Span, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("telemetry span start failed", "operation", desc.Qualified(), "panic", r)
			ok = false
		}
	}()
	sctx, span = tracer.StartSpan(ctx, desc.SpanName(), desc.SpanAttrs()...)
	return sctx, span, true
}

// guard runs an emission step, swallowing panics so telemetry failures never
// reach the wrapped operation's caller.
func guard(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("telemetry emission failed", "stage", stage, "panic", r)
		}
	}()
	fn()
}

func durationMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1e3
}

// funcIdentity extracts the package path and bare name of a function value.
func funcIdentity(fn Func) (module, name string) {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "", "anonymous"
	}
	full := f.Name()
	if i := strings.LastIndex(full, "/"); i >= 0 {
		module, full = full[:i+1], full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		module += full[:i]
		name = strings.TrimSuffix(full[i+1:], "-fm")
	} else {
		name = full
	}
	return module, name
}
