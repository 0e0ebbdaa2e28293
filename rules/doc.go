// Package rules implements declarative trace-decision rules.
//
// A RuleSet maps a call-site layer ("http", "business") to include/exclude
// glob patterns. The engine is a pure predicate over read-only configuration:
// it is safe for unsynchronized concurrent use and fails open, so an
// unconfigured layer or an empty rule set traces everything.
package rules
