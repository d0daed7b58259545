package sanitize

import (
	"regexp"

	"mailinline/internal/css"
)

var selectorClassRegex = regexp.MustCompile(`\.((?:\\.|[^\s.:>+~\[#,])+)`)

// SanitizeSelectorClasses rewrites each class in selector to its sanitized
// form, matching what the class attribute will carry
func SanitizeSelectorClasses(selector string) string {
	return selectorClassRegex.ReplaceAllStringFunc(selector, func(match string) string {
		return "." + SanitizeClassName(css.Unescape(match[1:]))
	})
}

// SanitizeNonInlinableRules prepares rules that stay in a <style> block:
// class selectors use sanitized names and every declaration becomes
// !important so it wins over the inlined styles.
func SanitizeNonInlinableRules(root *css.Node) {
	root.WalkRules(func(rule *css.Node) {
		if css.IsRuleInlinable(rule) {
			return
		}
		rule.Selector = SanitizeSelectorClasses(rule.Selector)
		rule.WalkDecls(func(decl *css.Node) {
			decl.Important = true
		})
	})
}

// CloneWithAncestors copies rule into a fresh tree that keeps its enclosing
// at-rules (except @layer), so a rule taken out of `@media` still carries
// its condition. The outermost copy is returned.
func CloneWithAncestors(rule *css.Node) *css.Node {
	out := rule.Clone()
	for p := rule.Parent; p != nil; p = p.Parent {
		if p.Kind != css.KindAtRule || p.Name == "layer" {
			continue
		}
		wrapper := &css.Node{Kind: css.KindAtRule, Name: p.Name, Params: p.Params, HasBlock: true}
		wrapper.Append(out)
		out = wrapper
	}
	return out
}

// NonInlinableStylesheet builds the stylesheet injected into <head> from
// the given rules, each copied once with its conditions and sanitized
func NonInlinableStylesheet(rules []*css.Node) *css.Node {
	root := css.NewRoot()
	for _, rule := range rules {
		root.Append(CloneWithAncestors(rule))
	}
	SanitizeNonInlinableRules(root)
	return root
}
