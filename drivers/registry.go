// Package drivers hooks third-party client libraries into the telemetry
// pipeline. Each driver registers a hook; Instrument runs the hooks once per
// driver and remembers the outcome.
package drivers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonwraymond/autotel/telemetry"
)

// Hook wires one driver library to the telemetry bundle. Returning an error
// marks the driver uninstrumented; Instrument may be retried later.
type Hook func(ctx context.Context, tel *telemetry.Telemetry) error

// State records the instrumentation outcome for a driver.
type State string

const (
	StateInstrumented   State = "instrumented"
	StateUninstrumented State = "uninstrumented"
)

// Registry maps driver names to hooks and tracks which drivers have been
// instrumented, so repeated Instrument calls are idempotent.
//
// Contract:
//   - Concurrency: safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	hooks  map[string]Hook
	states map[string]State
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:  make(map[string]Hook),
		states: make(map[string]State),
	}
}

// Register adds a driver hook. Re-registering replaces the hook and clears
// the driver's state so the next Instrument runs it again.
func (r *Registry) Register(name string, hook Hook) {
	name = strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = hook
	delete(r.states, name)
}

// Instrument runs the hooks for the named drivers. The result maps each
// requested name to whether it ended up instrumented. Unknown drivers and
// failed hooks report false; already instrumented drivers report true
// without re-running their hook.
func (r *Registry) Instrument(ctx context.Context, tel *telemetry.Telemetry, names ...string) map[string]bool {
	results := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.ToLower(name)

		r.mu.Lock()
		if r.states[name] == StateInstrumented {
			r.mu.Unlock()
			results[name] = true
			continue
		}
		hook, ok := r.hooks[name]
		r.mu.Unlock()

		if !ok {
			tel.Logger().Debug(ctx, "no driver hook registered",
				telemetry.Field{Key: "driver", Value: name})
			results[name] = false
			continue
		}

		if err := r.run(ctx, tel, name, hook); err != nil {
			tel.Logger().Error(ctx, "driver instrumentation failed",
				telemetry.Field{Key: "driver", Value: name},
				telemetry.Field{Key: "error", Value: err.Error()})
			results[name] = false
			continue
		}

		r.mu.Lock()
		r.states[name] = StateInstrumented
		r.mu.Unlock()

		tel.Logger().Info(ctx, "driver instrumented",
			telemetry.Field{Key: "driver", Value: name})
		results[name] = true
	}

	return results
}

// run executes a hook, converting panics into errors so one broken driver
// cannot take down instrumentation of the rest.
func (r *Registry) run(ctx context.Context, tel *telemetry.Telemetry, name string, hook Hook) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("driver %s panicked: %v", name, rec)
		}
	}()
	return hook(ctx, tel)
}

// Uninstrument marks the named driver uninstrumented so the next Instrument
// runs its hook again. Returns false for unknown drivers.
func (r *Registry) Uninstrument(name string) bool {
	name = strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[name]; !ok {
		return false
	}
	r.states[name] = StateUninstrumented
	return true
}

// States returns a snapshot of all recorded driver states.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.states))
	for k, v := range r.states {
		out[k] = v
	}
	return out
}
