package css

import "strings"

// RuleIndex maps class names to rules and remembers insertion order
type RuleIndex struct {
	keys  []string
	rules map[string]*Node
}

// NewRuleIndex creates an empty index
func NewRuleIndex() *RuleIndex {
	return &RuleIndex{rules: make(map[string]*Node)}
}

// Add records rule for class unless the class is already indexed. It
// reports whether the rule was stored.
func (ri *RuleIndex) Add(class string, rule *Node) bool {
	if _, ok := ri.rules[class]; ok {
		return false
	}
	ri.keys = append(ri.keys, class)
	ri.rules[class] = rule
	return true
}

// Get returns the rule indexed for class
func (ri *RuleIndex) Get(class string) (*Node, bool) {
	rule, ok := ri.rules[class]
	return rule, ok
}

// Has reports whether class is indexed
func (ri *RuleIndex) Has(class string) bool {
	_, ok := ri.rules[class]
	return ok
}

// Len returns the number of indexed classes
func (ri *RuleIndex) Len() int {
	return len(ri.keys)
}

// Classes returns indexed class names in insertion order
func (ri *RuleIndex) Classes() []string {
	out := make([]string, len(ri.keys))
	copy(out, ri.keys)
	return out
}

// Rules returns the distinct indexed rules in insertion order. A rule
// reached through several classes is listed once.
func (ri *RuleIndex) Rules() []*Node {
	seen := make(map[*Node]bool, len(ri.keys))
	out := make([]*Node, 0, len(ri.keys))
	for _, k := range ri.keys {
		rule := ri.rules[k]
		if seen[rule] {
			continue
		}
		seen[rule] = true
		out = append(out, rule)
	}
	return out
}

// ClassRules splits rules targeting classes in use by inlinability
type ClassRules struct {
	Inlinable    *RuleIndex
	NonInlinable *RuleIndex
}

// ExtractRulesPerClass indexes every rule whose selector names one of
// classesInUse. The first rule found for a class wins within each bucket.
func ExtractRulesPerClass(root *Node, classesInUse []string) ClassRules {
	inUse := make(map[string]bool, len(classesInUse))
	for _, c := range classesInUse {
		inUse[c] = true
	}

	result := ClassRules{
		Inlinable:    NewRuleIndex(),
		NonInlinable: NewRuleIndex(),
	}

	root.WalkRules(func(rule *Node) {
		target := result.NonInlinable
		if IsRuleInlinable(rule) {
			target = result.Inlinable
		}
		for _, class := range ClassNames(rule.Selector) {
			if inUse[class] {
				target.Add(class, rule)
			}
		}
	})

	return result
}

// GlobalRules holds rules that target elements without a class
type GlobalRules struct {
	Universal []*Node
	Element   map[string][]*Node
	Root      []*Node
}

// ForElement returns the rules keyed by tag (case-insensitive)
func (g GlobalRules) ForElement(tag string) []*Node {
	return g.Element[strings.ToLower(tag)]
}

// Empty reports whether no global rule was found
func (g GlobalRules) Empty() bool {
	return len(g.Universal) == 0 && len(g.Element) == 0 && len(g.Root) == 0
}

// ExtractGlobalRules collects universal, tag and :root rules. Each fragment
// of a selector list is judged on its own, so `*, ::before` still yields a
// universal rule. Stored rules are detached clones with a single selector.
func ExtractGlobalRules(root *Node) GlobalRules {
	result := GlobalRules{Element: make(map[string][]*Node)}

	root.WalkRules(func(rule *Node) {
		conditional := IsInConditionalAtRule(rule)

		for _, selector := range SplitSelectorList(rule.Selector) {
			if selector == "" {
				continue
			}

			if selector == ":root" {
				if !conditional {
					result.Root = append(result.Root, cloneWithSelector(rule, selector))
				}
				continue
			}

			switch {
			case HasPseudoSelector(selector), conditional:
				continue
			case strings.ContainsAny(selector, ".[#"):
				continue
			case selector != "*" && hasCombinator(selector):
				continue
			}

			if selector == "*" {
				result.Universal = append(result.Universal, cloneWithSelector(rule, selector))
				continue
			}

			if IsElementSelector(selector) {
				tag := strings.ToLower(selector)
				result.Element[tag] = append(result.Element[tag], cloneWithSelector(rule, selector))
			}
		}
	})

	return result
}

func cloneWithSelector(rule *Node, selector string) *Node {
	c := rule.Clone()
	c.Selector = selector
	return c
}
