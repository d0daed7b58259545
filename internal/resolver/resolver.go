package resolver

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailinline/internal/config"
	"mailinline/internal/css"
	"mailinline/internal/diag"
	"mailinline/internal/html"
	"mailinline/internal/sanitize"
)

// Rules is everything extracted from the stylesheet that drives inlining
type Rules struct {
	Classes          css.ClassRules
	Global           css.GlobalRules
	CustomProperties css.CustomProperties
}

// Stats counts what the resolver did to the tree
type Stats struct {
	ElementsProcessed int
	StylesWritten     int
	ClassesInlined    int
	ClassesKept       int
}

// Resolver computes and writes the inline style of each element
type Resolver struct {
	rules  Rules
	client string
	diag   *diag.Collector
	log    *zap.Logger

	reported map[string]bool
	stats    Stats
}

// New creates a resolver for one render
func New(rules Rules, cfg config.Config, collector *diag.Collector, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if collector == nil {
		collector = diag.NewCollector(log)
	}
	if rules.Global.Element == nil {
		rules.Global.Element = map[string][]*css.Node{}
	}
	return &Resolver{
		rules:    rules,
		client:   cfg.TargetEmailClient,
		diag:     collector,
		log:      log.Named("resolver"),
		reported: make(map[string]bool),
	}
}

// Stats returns counters accumulated so far
func (r *Resolver) Stats() Stats {
	return r.stats
}

// metadata elements never receive global styles
var skipGlobal = map[string]bool{
	"head": true, "title": true, "meta": true, "link": true, "base": true,
	"script": true, "style": true, "noscript": true,
}

// rulesFor lists the rules applying to element id, lowest precedence
// first, and the classes that had no inlinable rule
func (r *Resolver) rulesFor(t *html.Tree, id html.NodeID) ([]*css.Node, []string) {
	tag := t.Tag(id)
	classAttr, _ := t.Attr(id, "class")

	var rules []*css.Node
	if !skipGlobal[tag] {
		rules = append(rules, MatchingGlobalRulesForElement(r.rules.Global.Universal, classAttr)...)
		rules = append(rules, r.rules.Global.ForElement(tag)...)
		if tag == "html" {
			rules = append(rules, r.rules.Global.Root...)
		}
	}

	var residual []string
	for _, class := range strings.Fields(classAttr) {
		if rule, ok := r.rules.Classes.Inlinable.Get(class); ok {
			rules = append(rules, rule)
			r.stats.ClassesInlined++
		} else {
			residual = append(residual, class)
		}
	}
	return rules, residual
}

// AddInlinedStyles writes the composed style of element id and rewrites
// its class attribute. Classes with only non-inlinable rules are kept in
// sanitized form to match the injected stylesheet; classes with no rule at
// all are kept verbatim and reported.
func (r *Resolver) AddInlinedStyles(t *html.Tree, id html.NodeID) {
	if t.Tag(id) == "" {
		return
	}
	r.stats.ElementsProcessed++

	rules, residual := r.rulesFor(t, id)

	decls := ComposeDeclarations(rules, r.rules.CustomProperties)
	r.checkCompatibility(decls)
	if styles := SerializeDeclarations(decls); styles != "" {
		existing, _ := t.Attr(id, "style")
		t.SetAttr(id, "style", CombineStyles(styles, existing))
		r.stats.StylesWritten++
	}

	if _, ok := t.Attr(id, "class"); !ok {
		return
	}
	if len(residual) == 0 {
		t.RemoveAttr(id, "class")
		return
	}

	kept := make([]string, len(residual))
	for i, class := range residual {
		if r.rules.Classes.NonInlinable.Has(class) {
			kept[i] = sanitize.SanitizeClassName(class)
		} else {
			r.diag.UnknownClass(class)
			kept[i] = class
		}
	}
	r.stats.ClassesKept += len(kept)
	t.SetAttr(id, "class", strings.Join(kept, " "))

	r.log.Debug("Residual classes kept", zap.String("tag", t.Tag(id)), zap.Strings("classes", kept))
}

// Apply runs AddInlinedStyles on every element of the tree
func (r *Resolver) Apply(t *html.Tree) {
	for _, id := range t.Elements() {
		r.AddInlinedStyles(t, id)
	}
}

func (r *Resolver) checkCompatibility(decls []Declaration) {
	for _, issue := range CheckCompatibility(decls, r.client) {
		key := issue.Property + "\x00" + issue.Message
		if r.reported[key] {
			continue
		}
		r.reported[key] = true
		r.diag.Warn(fmt.Sprintf("%s (%s: %s)", issue.Message, issue.Property, issue.Value),
			zap.String("client", r.client))
	}
}
