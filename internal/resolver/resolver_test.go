package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mailinline/internal/config"
	"mailinline/internal/css"
	"mailinline/internal/diag"
	"mailinline/internal/html"
)

func parseCSS(t *testing.T, src string) *css.Node {
	t.Helper()
	root, err := css.NewParser(nil).Parse(src)
	require.NoError(t, err)
	return root
}

func buildRules(t *testing.T, src string, classes ...string) Rules {
	t.Helper()
	root := parseCSS(t, src)
	return Rules{
		Classes:          css.ExtractRulesPerClass(root, classes),
		Global:           css.ExtractGlobalRules(root),
		CustomProperties: css.GetCustomProperties(root),
	}
}

func parseHTML(t *testing.T, markup string) *html.Tree {
	t.Helper()
	tree, err := html.Parse(markup)
	require.NoError(t, err)
	return tree
}

func TestMatchingGlobalRulesForElement(t *testing.T) {
	rules := buildRules(t, `* { border-color: red; box-sizing: border-box }`).Global.Universal
	require.Len(t, rules, 1)

	tests := []struct {
		name      string
		classAttr string
		want      string
	}{
		{"border class", "border", "border-color: red; box-sizing: border-box;"},
		{"outline class", "outline", "box-sizing: border-box;"},
		{"substring match", "no-border-here", "border-color: red; box-sizing: border-box;"},
		{"no class", "", "box-sizing: border-box;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := MatchingGlobalRulesForElement(rules, tt.classAttr)
			assert.Equal(t, tt.want, MakeInlineStylesFor(matched, nil))
		})
	}

	// the stored rule is not modified
	assert.Len(t, rules[0].Decls(), 2)
}

func TestMatchingGlobalRulesForElement_NothingApplies(t *testing.T) {
	rules := buildRules(t, `* { padding: 0; color: red }`).Global.Universal
	assert.Empty(t, MatchingGlobalRulesForElement(rules, "border"))
}

func TestMakeInlineStylesFor(t *testing.T) {
	root := parseCSS(t, `
		@property --tw-shadow { syntax: "*"; inherits: false; initial-value: 0 0 #0000; }
		.a { --tw-ring: 2px; width: var(--tw-ring); }
		.b { box-shadow: var(--tw-shadow); color: blue !important; }
		.c { color: var(--unknown); }
	`)
	props := css.GetCustomProperties(root)

	var rules []*css.Node
	root.WalkRules(func(rule *css.Node) {
		if rule.Selector != "" {
			rules = append(rules, rule)
		}
	})
	require.Len(t, rules, 3)

	got := MakeInlineStylesFor(rules, props)
	assert.Equal(t, "width: 2px; box-shadow: 0 0 #0000; color: blue !important; color: var(--unknown);", got)
}

func TestCombineStyles(t *testing.T) {
	assert.Equal(t, "color: red; margin: 0;", CombineStyles("color: red;", "margin: 0"))
	assert.Equal(t, "color: red;", CombineStyles("color: red;", "  "))
	assert.Equal(t, "margin: 0", CombineStyles("", "margin: 0"))
}

func TestAddInlinedStyles_TierOrder(t *testing.T) {
	rules := buildRules(t, `
		* { margin: 0; padding: 0 }
		p { color: black }
		.a { color: red }
		.b { font-size: 12px }
	`, "a", "b")
	tree := parseHTML(t, `<p class="b a" style="color: blue">x</p>`)

	r := New(rules, config.Default(), nil, nil)
	r.Apply(tree)

	p := tree.Find("p")
	style, _ := tree.Attr(p, "style")
	assert.Equal(t, "margin: 0; color: black; font-size: 12px; color: red; color: blue;", style)

	_, hasClass := tree.Attr(p, "class")
	assert.False(t, hasClass, "fully inlined classes are removed")
	assert.Equal(t, Stats{ElementsProcessed: 1, StylesWritten: 1, ClassesInlined: 2}, r.Stats())
}

func TestAddInlinedStyles_RootRulesOnlyOnHTML(t *testing.T) {
	rules := buildRules(t, `:root { color: black; --brand: red }`)
	tree := parseHTML(t, `<html><head></head><body><div></div></body></html>`)

	New(rules, config.Default(), nil, nil).Apply(tree)

	style, _ := tree.Attr(tree.Find("html"), "style")
	assert.Equal(t, "color: black;", style)
	_, ok := tree.Attr(tree.Find("div"), "style")
	assert.False(t, ok)
}

func TestAddInlinedStyles_SkipsMetadata(t *testing.T) {
	rules := buildRules(t, `* { margin: 0 }`)
	tree := parseHTML(t, `<head><meta charset="utf-8"><title>x</title></head><body></body>`)

	New(rules, config.Default(), nil, nil).Apply(tree)

	for _, tag := range []string{"head", "meta", "title"} {
		_, ok := tree.Attr(tree.Find(tag), "style")
		assert.False(t, ok, tag)
	}
	style, _ := tree.Attr(tree.Find("body"), "style")
	assert.Equal(t, "margin: 0;", style)
}

func TestAddInlinedStyles_ResidualClasses(t *testing.T) {
	rules := buildRules(t, `
		.bg-blue-500 { background-color: blue }
		@media (min-width: 640px) { .sm\:bg-red-500 { background-color: red } }
	`, "bg-blue-500", "sm:bg-red-500", "mystery")
	tree := parseHTML(t, `<div class="bg-blue-500 sm:bg-red-500 mystery mystery"></div>`)

	collector := diag.NewCollector(nil)
	r := New(rules, config.Default(), collector, nil)
	r.Apply(tree)

	div := tree.Find("div")
	class, _ := tree.Attr(div, "class")
	assert.Equal(t, "sm_bg-red-500 mystery mystery", class)
	style, _ := tree.Attr(div, "style")
	assert.Equal(t, "background-color: blue;", style)

	assert.Equal(t, []string{"mystery"}, collector.UnknownClasses())
	assert.Equal(t, 3, r.Stats().ClassesKept)
}

func TestAddInlinedStyles_CompatibilityWarnings(t *testing.T) {
	rules := buildRules(t, `.hero { width: 100vw; display: flex }`, "hero")
	tree := parseHTML(t, `<div class="hero"></div><div class="hero"></div>`)

	core, logs := observer.New(zapcore.WarnLevel)
	collector := diag.NewCollector(zap.New(core))

	cfg := config.Default()
	cfg.TargetEmailClient = "outlook"
	New(rules, cfg, collector, nil).Apply(tree)

	warnings := collector.Warnings()
	require.Len(t, warnings, 2, "each issue is reported once")
	assert.Contains(t, warnings[0], "Viewport units")
	assert.Contains(t, warnings[1], "Flex and grid")
	assert.Equal(t, 2, logs.Len())
}

func TestCheckCompatibility_Generic(t *testing.T) {
	decls := []Declaration{
		{Property: "display", Value: "flex"},
		{Property: "background-image", Value: "url(a.png)"},
		{Property: "max-width", Value: "50vw"},
	}
	issues := CheckCompatibility(decls, "generic")
	require.Len(t, issues, 1)
	assert.Equal(t, "max-width", issues[0].Property)
}
