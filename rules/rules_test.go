package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleSet_Allow_EmptySet(t *testing.T) {
	var rs RuleSet

	assert.True(t, rs.Allow(Call{Layer: LayerHTTP, Route: "/anything"}))
	assert.True(t, rs.Allow(Call{Layer: LayerBusiness, Method: "anything"}))
	assert.True(t, rs.Allow(Call{Layer: "queue", Method: "consume"}))

	rs = RuleSet{}
	assert.True(t, rs.Allow(Call{Layer: LayerHTTP, Route: "/anything"}))
}

func TestRuleSet_Allow_HTTPIncludeExclude(t *testing.T) {
	rs := RuleSet{
		LayerHTTP: {
			IncludeRoutes: []string{"/api/*"},
			ExcludeRoutes: []string{"/api/health"},
		},
	}

	tests := []struct {
		name  string
		route string
		want  bool
	}{
		{"included route", "/api/users", true},
		{"excluded wins over include", "/api/health", false},
		{"outside include list", "/other", false},
		{"star crosses slash", "/api/users/42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rs.Allow(Call{Layer: LayerHTTP, Route: tt.route, Method: "GET"})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleSet_Allow_BusinessExcludeOverridesInclude(t *testing.T) {
	rs := RuleSet{
		LayerBusiness: {
			IncludeMethods: []string{"get_*"},
			ExcludeMethods: []string{"get_secret"},
		},
	}

	assert.True(t, rs.Allow(Call{Layer: LayerBusiness, Method: "get_all"}))
	assert.False(t, rs.Allow(Call{Layer: LayerBusiness, Method: "get_secret"}))
	assert.False(t, rs.Allow(Call{Layer: LayerBusiness, Method: "delete_all"}))
}

func TestRuleSet_Allow_NoIncludeListPassesAll(t *testing.T) {
	rs := RuleSet{
		LayerBusiness: {
			ExcludeMethods: []string{"internal_*"},
		},
	}

	assert.True(t, rs.Allow(Call{Layer: LayerBusiness, Method: "anything"}))
	assert.False(t, rs.Allow(Call{Layer: LayerBusiness, Method: "internal_sync"}))
}

func TestRuleSet_Allow_UnconfiguredLayer(t *testing.T) {
	rs := RuleSet{
		LayerHTTP: {ExcludeRoutes: []string{"/metrics"}},
	}

	// Business has no rules: allowed. Unknown layers: allowed.
	assert.True(t, rs.Allow(Call{Layer: LayerBusiness, Method: "get_secret"}))
	assert.True(t, rs.Allow(Call{Layer: "grpc", Method: "Check"}))
}

func TestRuleSet_Allow_NilLayerRules(t *testing.T) {
	rs := RuleSet{LayerHTTP: nil}
	assert.True(t, rs.Allow(Call{Layer: LayerHTTP, Route: "/api/users"}))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"", "", true},
		{"", "x", false},
		{"/api/*", "/api/users", true},
		{"/api/*", "/api/users/42", true},
		{"/api/*", "/api", false},
		{"/api/?", "/api/a", true},
		{"/api/?", "/api/ab", false},
		{"get_*", "get_all", true},
		{"get_*", "set_all", false},
		{"*_secret", "get_secret", true},
		{"a*b*c", "axxbxxc", true},
		{"a*b*c", "axxcxxb", false},
		{"exact", "exact", true},
		{"exact", "exac", false},
	}

	for _, tt := range tests {
		got := Match(tt.pattern, tt.s)
		assert.Equalf(t, tt.want, got, "Match(%q, %q)", tt.pattern, tt.s)
	}
}
