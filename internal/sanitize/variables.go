package sanitize

import (
	"strings"

	"mailinline/internal/css"
)

// DefaultMaxVariableIterations bounds the fixed-point variable resolution
const DefaultMaxVariableIterations = 10

// Result describes how variable resolution ended
type Result struct {
	Iterations int  // passes that replaced something
	Converged  bool // false when the iteration cap was reached
}

type varDefinition struct {
	decl     *css.Node
	selector string
}

type varUse struct {
	decl           *css.Node
	name           string
	raw            string
	fallback       string
	hasFallback    bool
	selector       string
	inAtRule       bool
	atRuleSelector string
	hasAtSelector  bool
}

// ownerSelector is the selector of the rule directly holding decl, or `*`
func ownerSelector(decl *css.Node) string {
	if p := decl.Parent; p != nil && p.Kind == css.KindRule {
		return p.Selector
	}
	return "*"
}

// atRuleSelector finds the selector a use inside an at-rule belongs to: the
// rule wrapping the at-rule for nested CSS, or the closest rule otherwise
func atRuleSelector(decl *css.Node) (string, bool) {
	for p := decl.Parent; p != nil; p = p.Parent {
		if p.Kind == css.KindAtRule && p.Parent != nil && p.Parent.Kind == css.KindRule {
			return p.Parent.Selector, true
		}
		if p.Kind == css.KindRule {
			return p.Selector, true
		}
	}
	return "", false
}

func inAtRule(decl *css.Node) bool {
	for p := decl.Parent; p != nil; p = p.Parent {
		if p.Kind == css.KindAtRule {
			return true
		}
	}
	return false
}

// inPropertiesLayer reports whether decl sits in `@layer properties`, the
// block frameworks emit only for @property feature detection
func inPropertiesLayer(decl *css.Node) bool {
	for p := decl.Parent; p != nil; p = p.Parent {
		if p.Kind == css.KindAtRule && p.Name == "layer" && strings.Contains(p.Params, "properties") {
			return true
		}
	}
	return false
}

func selectorsIntersect(a, b string) bool {
	if a == b {
		return true
	}
	if strings.Contains(a, ":root") || strings.Contains(b, ":root") {
		return true
	}
	return a == "*" || b == "*"
}

// collectUses records every var() in value, including those nested in
// fallbacks
func collectUses(decl *css.Node, value string, uses []varUse) []varUse {
	css.WalkValues(css.ParseValue(value), func(n *css.Value) bool {
		if n.Type != css.ValueFunction || n.Value != "var" {
			return true
		}

		use := varUse{
			decl:     decl,
			raw:      n.String(),
			selector: ownerSelector(decl),
			inAtRule: inAtRule(decl),
		}
		use.atRuleSelector, use.hasAtSelector = atRuleSelector(decl)
		if len(n.Nodes) > 0 {
			use.name = strings.TrimSpace(n.Nodes[0].String())
		}
		for i, arg := range n.Nodes {
			if arg.Type == css.ValueDiv && arg.Value == "," {
				use.fallback = strings.TrimSpace(css.Stringify(n.Nodes[i+1:]))
				use.hasFallback = true
				break
			}
		}
		uses = append(uses, use)

		if use.hasFallback && hasFunction(use.fallback, "var") {
			uses = collectUses(decl, use.fallback, uses)
		}
		return false
	})
	return uses
}

func (u varUse) matches(def varDefinition) bool {
	switch {
	case u.inAtRule && u.hasAtSelector:
		return selectorsIntersect(u.atRuleSelector, def.selector)
	case u.inAtRule:
		return strings.Contains(def.selector, ":root") || def.selector == "*"
	default:
		return selectorsIntersect(u.selector, def.selector)
	}
}

// ResolveAllVariables substitutes var() references with the value of a
// definition whose selector intersects the use, or with the fallback. It
// repeats until a pass changes nothing, at most maxIterations times, so
// chains resolve and cycles stop.
func ResolveAllVariables(root *css.Node, maxIterations int) Result {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxVariableIterations
	}

	iteration := 0
	for iteration < maxIterations {
		definitions := make(map[string][]varDefinition)
		var uses []varUse

		root.WalkDecls(func(decl *css.Node) {
			if inPropertiesLayer(decl) {
				return
			}
			if decl.IsCustomProperty() {
				definitions[decl.Prop] = append(definitions[decl.Prop], varDefinition{
					decl:     decl,
					selector: ownerSelector(decl),
				})
			}
			if hasFunction(decl.Value, "var") {
				// uses are replaced by their text, so keep the value in canonical form
				decl.Value = css.Stringify(css.ParseValue(decl.Value))
				uses = collectUses(decl, decl.Value, uses)
			}
		})

		if len(uses) == 0 {
			return Result{Iterations: iteration, Converged: true}
		}

		replaced := false
		for _, use := range uses {
			found := false
			for _, def := range definitions[use.name] {
				if use.matches(def) {
					use.decl.Value = strings.ReplaceAll(use.decl.Value, use.raw, def.decl.Value)
					found = true
					replaced = true
					break
				}
			}
			if !found && use.hasFallback && use.fallback != "" {
				use.decl.Value = strings.ReplaceAll(use.decl.Value, use.raw, use.fallback)
				replaced = true
			}
		}

		if !replaced {
			return Result{Iterations: iteration, Converged: true}
		}
		iteration++
	}

	return Result{Iterations: iteration, Converged: false}
}
