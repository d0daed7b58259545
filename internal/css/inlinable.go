package css

// conditionalAtRules scope their content to a runtime condition, so nothing
// inside them can be flattened into a style attribute. @layer only orders
// rules and does not count.
var conditionalAtRules = map[string]bool{
	"media":     true,
	"supports":  true,
	"container": true,
	"document":  true,
}

// IsConditionalAtRule reports whether n is a media/supports/container/document block
func IsConditionalAtRule(n *Node) bool {
	return n != nil && n.Kind == KindAtRule && conditionalAtRules[n.Name]
}

// IsInConditionalAtRule reports whether any ancestor of n is a conditional
// at-rule
func IsInConditionalAtRule(n *Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if IsConditionalAtRule(p) {
			return true
		}
	}
	return false
}

// ClosestConditionalAtRule returns the nearest conditional at-rule above n
func ClosestConditionalAtRule(n *Node) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if IsConditionalAtRule(p) {
			return p
		}
	}
	return nil
}

// containsAtRule reports whether any at-rule is nested inside n
func containsAtRule(n *Node) bool {
	return !n.Walk(func(c *Node) bool {
		return c.Kind != KindAtRule
	})
}

// IsRuleInlinable decides whether the declarations of rule can be moved
// into style attributes: it must not contain an at-rule, must not sit in a
// conditional at-rule and must not use pseudo selectors. `:root` outside a
// conditional at-rule targets the html element and stays inlinable.
func IsRuleInlinable(rule *Node) bool {
	if containsAtRule(rule) {
		return false
	}
	if IsInConditionalAtRule(rule) {
		return false
	}
	if rule.Selector == ":root" {
		return true
	}
	return !HasPseudoSelector(rule.Selector)
}
