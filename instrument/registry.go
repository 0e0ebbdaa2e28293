package instrument

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/jonwraymond/autotel/telemetry"
)

// Manifest names the operations of a service type, method name to function.
// An Instrumentor wraps every entry under the owning type's identity.
type Manifest map[string]Func

// Instrumentor wraps whole services at once and remembers which types it has
// already processed, so instrumenting the same type twice yields the same
// operations instead of doubly wrapped ones.
//
// Contract:
//   - Concurrency: safe for concurrent use.
type Instrumentor struct {
	mu    sync.Mutex
	types map[string]map[string]*Operation
}

// NewInstrumentor returns an empty Instrumentor.
func NewInstrumentor() *Instrumentor {
	return &Instrumentor{
		types: make(map[string]map[string]*Operation),
	}
}

// InstrumentType wraps every exported entry of manifest under the class
// identity derived from prototype's type. Repeated calls for the same type
// return the previously built operations untouched.
//
// Entries whose name does not start with an upper-case letter are skipped,
// mirroring Go's exported-identifier convention.
func (in *Instrumentor) InstrumentType(prototype any, manifest Manifest, opts ...Option) map[string]*Operation {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	className := "anonymous"
	module := ""
	if t != nil {
		className = t.Name()
		module = t.PkgPath()
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	key := module + "." + className
	if ops, ok := in.types[key]; ok {
		return ops
	}

	ops := make(map[string]*Operation, len(manifest))
	for name, fn := range manifest {
		if !isExportedName(name) {
			continue
		}
		ops[name] = New(Descriptor{
			Kind:   KindMethod,
			Class:  className,
			Method: name,
			Module: module,
		}, fn, opts...)
	}

	in.types[key] = ops
	return ops
}

// Instrumented reports whether the prototype's type has been processed.
func (in *Instrumentor) Instrumented(prototype any) bool {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return false
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.types[t.PkgPath()+"."+t.Name()]
	return ok
}

// Bind attaches a telemetry bundle to every operation of every instrumented
// type. Typically called once after the provider is built.
func (in *Instrumentor) Bind(tel *telemetry.Telemetry) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, ops := range in.types {
		for _, op := range ops {
			op.Bind(tel)
		}
	}
}

func isExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// ManifestFor builds a Manifest from svc's exported methods that already
// match the Func shape: func(context.Context, any) (any, error). Methods
// with other signatures are ignored; adapt them by hand.
func ManifestFor(svc any) (Manifest, error) {
	v := reflect.ValueOf(svc)
	if !v.IsValid() {
		return nil, fmt.Errorf("instrument: nil service")
	}

	manifest := make(Manifest)
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		fn, ok := v.Method(i).Interface().(func(context.Context, any) (any, error))
		if !ok {
			continue
		}
		manifest[m.Name] = fn
	}

	if len(manifest) == 0 {
		return nil, fmt.Errorf("instrument: %s has no wrappable methods", t)
	}
	return manifest, nil
}
