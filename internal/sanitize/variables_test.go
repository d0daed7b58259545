package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mailinline/internal/css"
	"mailinline/internal/diag"
)

func valueOf(t *testing.T, root *css.Node, selector, prop string) string {
	t.Helper()
	var found *css.Node
	root.WalkRules(func(rule *css.Node) {
		if rule.Selector != selector {
			return
		}
		for _, d := range rule.Decls() {
			if d.Prop == prop {
				found = d
			}
		}
	})
	require.NotNil(t, found, "%s { %s }", selector, prop)
	return found.Value
}

func TestResolveAllVariables_Chain(t *testing.T) {
	root := parseSheet(t, `
		:root { --a: red; --b: var(--a); --c: var(--b); }
		.x { color: var(--c); }
	`)

	res := ResolveAllVariables(root, 10)

	assert.True(t, res.Converged)
	assert.Equal(t, "red", valueOf(t, root, ".x", "color"))
	assert.NotContains(t, root.String(), "var(")
}

func TestResolveAllVariables_Circular(t *testing.T) {
	root := parseSheet(t, `
		:root { --a: var(--b); --b: var(--a); }
		.x { color: var(--a); }
	`)

	res := ResolveAllVariables(root, 10)

	assert.False(t, res.Converged)
	assert.Equal(t, 10, res.Iterations)
	assert.Contains(t, valueOf(t, root, ".x", "color"), "var(--")
}

func TestResolveAllVariables_Cases(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		selector string
		prop     string
		want     string
	}{
		{
			name:     "same rule",
			src:      `.a { --w: 4px; width: var(--w); }`,
			selector: ".a", prop: "width", want: "4px",
		},
		{
			name:     "multiple uses in one value",
			src:      `:root { --x: 1px; --y: 2px; } .a { margin: var(--x) var(--y) var(--x); }`,
			selector: ".a", prop: "margin", want: "1px 2px 1px",
		},
		{
			name:     "across layers",
			src:      `@layer theme { :root { --c: blue; } } @layer utilities { .a { color: var(--c); } }`,
			selector: ".a", prop: "color", want: "blue",
		},
		{
			name:     "inside media",
			src:      `:root { --c: red; } @media (min-width: 640px) { .a { color: var(--c); } }`,
			selector: ".a", prop: "color", want: "red",
		},
		{
			name:     "nested media uses wrapping rule",
			src:      `.a { --gap: 3px; @media (min-width: 640px) { gap: var(--gap); } }`,
			selector: ".a", prop: "--gap", want: "3px",
		},
		{
			name:     "fallback",
			src:      `.a { color: var(--missing, blue); }`,
			selector: ".a", prop: "color", want: "blue",
		},
		{
			name:     "nested fallback",
			src:      `.a { color: var(--x, var(--y, green)); }`,
			selector: ".a", prop: "color", want: "green",
		},
		{
			name:     "fallback var resolves",
			src:      `:root { --y: teal; } .a { color: var(--x, var(--y)); }`,
			selector: ".a", prop: "color", want: "teal",
		},
		{
			name:     "unrelated selector does not match",
			src:      `.b { --w: 4px; } .a { width: var(--w); }`,
			selector: ".a", prop: "width", want: "var(--w)",
		},
		{
			name:     "universal definition",
			src:      `* { --tw-border-style: solid; } .border { border-style: var(--tw-border-style); }`,
			selector: ".border", prop: "border-style", want: "solid",
		},
		{
			name: "properties layer ignored",
			src: `@layer properties { :root, :host { --tw-x: 1px; } }
				.a { --tw-x: 2px; width: var(--tw-x); }`,
			selector: ".a", prop: "width", want: "2px",
		},
		{
			name:     "unknown kept",
			src:      `.a { color: var(--nope); }`,
			selector: ".a", prop: "color", want: "var(--nope)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseSheet(t, tt.src)
			res := ResolveAllVariables(root, DefaultMaxVariableIterations)
			assert.True(t, res.Converged)
			assert.Equal(t, tt.want, valueOf(t, root, tt.selector, tt.prop))
		})
	}
}

func TestResolveAllVariables_NestedMediaUse(t *testing.T) {
	root := parseSheet(t, `.a { --gap: 3px; @media (min-width: 640px) { gap: var(--gap); } }`)

	ResolveAllVariables(root, DefaultMaxVariableIterations)

	var gap string
	root.WalkDecls(func(d *css.Node) {
		if d.Prop == "gap" {
			gap = d.Value
		}
	})
	assert.Equal(t, "3px", gap)
}

func TestSanitizeStylesheet_WarnsOnCycle(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	collector := diag.NewCollector(zap.New(core))

	root := parseSheet(t, `:root { --a: var(--b); --b: var(--a); } .x { color: var(--a); }`)
	res, err := SanitizeStylesheet(root, Options{MaxVariableIterations: 3}, collector)
	require.NoError(t, err)

	assert.False(t, res.Converged)
	require.Len(t, collector.Warnings(), 1)
	assert.Contains(t, collector.Warnings()[0], "maximum iterations")
	assert.Equal(t, 1, logs.Len())
	assert.Contains(t, valueOf(t, root, ".x", "color"), "var(--")
}
