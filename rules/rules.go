package rules

// Call-site layers understood by the decision engine.
const (
	// LayerHTTP classifies inbound request routes.
	LayerHTTP = "http"

	// LayerBusiness classifies internal method calls.
	LayerBusiness = "business"
)

// Call describes a single invocation to the decision engine.
//
// Contract:
//   - Ownership: a Call is constructed fresh per invocation and never retained.
//   - Concurrency: values are passed by copy; no synchronization is needed.
type Call struct {
	// Layer classifies the call site; see the Layer constants.
	Layer string

	// Route is the request path, consulted for LayerHTTP.
	Route string

	// Method is the HTTP verb for LayerHTTP, or the bare method name
	// (not the qualified name) for LayerBusiness.
	Method string
}

// LayerRules holds include/exclude glob patterns for one layer.
//
// A nil or absent include list means everything passes the include stage.
// Exclude always overrides include.
type LayerRules struct {
	IncludeRoutes  []string `koanf:"include_routes"`
	ExcludeRoutes  []string `koanf:"exclude_routes"`
	IncludeMethods []string `koanf:"include_methods"`
	ExcludeMethods []string `koanf:"exclude_methods"`
}

// RuleSet maps a layer name to its rules. It is read-only at decision time;
// supplied by configuration and never mutated by the engine.
type RuleSet map[string]*LayerRules

// Allow reports whether the rule set permits tracing c.
//
// An empty rule set, a layer without rules, and an unknown layer all allow:
// the engine fails open so that partial configuration never silences
// telemetry the operator did not explicitly exclude.
func (rs RuleSet) Allow(c Call) bool {
	if len(rs) == 0 {
		return true
	}

	lr := rs[c.Layer]
	if lr == nil {
		return true
	}

	switch c.Layer {
	case LayerHTTP:
		return allow(c.Route, lr.IncludeRoutes, lr.ExcludeRoutes)
	case LayerBusiness:
		return allow(c.Method, lr.IncludeMethods, lr.ExcludeMethods)
	default:
		return true
	}
}

// allow applies the two-stage include/exclude check to value.
func allow(value string, include, exclude []string) bool {
	if len(include) > 0 && !matchAny(value, include) {
		return false
	}
	if matchAny(value, exclude) {
		return false
	}
	return true
}

func matchAny(value string, patterns []string) bool {
	for _, p := range patterns {
		if Match(p, value) {
			return true
		}
	}
	return false
}

// Match reports whether s matches the glob pattern. Supported wildcards are
// '*' (any sequence, including the empty one) and '?' (any single byte).
//
// Unlike path.Match, '*' crosses '/' so that "/api/*" matches "/api/users/1";
// route and method rules are written against flat names, not path segments.
// Match never panics and a degenerate pattern simply does not match.
func Match(pattern, s string) bool {
	// Iterative glob with single-star backtracking.
	var pi, si int
	star := -1
	mark := 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
