package resolver

import (
	"regexp"
	"strings"

	"mailinline/internal/css"
)

// alwaysApplied are layout-critical properties of universal rules that go
// on every element
var alwaysApplied = map[string]bool{
	"box-sizing": true,
	"margin":     true,
}

// conditionalRegex selects universal properties that only apply when the
// element's class attribute mentions the captured word
var conditionalRegex = regexp.MustCompile(`(border|outline)-color`)

// MatchingGlobalRulesForElement filters universal rules down to what is
// safe to inline on an element with the given class attribute.
//
// This does not evaluate selectors: `border-color` is applied when the
// class attribute contains "border" anywhere, `outline-color` likewise for
// "outline". A class like "no-border" therefore also matches.
func MatchingGlobalRulesForElement(rules []*css.Node, classAttr string) []*css.Node {
	var out []*css.Node
	for _, rule := range rules {
		var decls []*css.Node
		for _, n := range rule.Nodes {
			if n.Kind != css.KindDecl {
				continue
			}
			if alwaysApplied[n.Prop] {
				decls = append(decls, n)
				continue
			}
			if m := conditionalRegex.FindStringSubmatch(n.Prop); m != nil && strings.Contains(classAttr, m[1]) {
				decls = append(decls, n)
			}
		}
		if len(decls) == 0 {
			continue
		}

		matched := css.NewRule(rule.Selector)
		for _, d := range decls {
			matched.Append(d.Clone())
		}
		out = append(out, matched)
	}
	return out
}
